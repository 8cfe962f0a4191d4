// Package game 实现单个房间内的权威对局状态机。
//
// Game 本身不是并发安全的，调用方（room.Room）负责串行化所有操作。
package game

import (
	"math/rand/v2"

	"github.com/palemoky/catch-the-ten/internal/apperrors"
	"github.com/palemoky/catch-the-ten/internal/game/card"
)

// Phase 对局阶段，只能单向推进
type Phase string

const (
	PhaseLobby          Phase = "LOBBY"
	PhaseTrumpDiscovery Phase = "TRUMP_DISCOVERY"
	PhaseMainGame       Phase = "MAIN_GAME"
	PhaseFinished       Phase = "FINISHED"
)

const (
	NumSeats        = 4 // 固定四人
	InitialDealSize = 5 // 首轮每人发牌数
)

// Team 队伍，由座位号推导
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// TeamOf 偶数座位为 A 队，奇数座位为 B 队
func TeamOf(seat int) Team {
	if seat%2 == 0 {
		return TeamA
	}
	return TeamB
}

// Seat 入座信息，按加入顺序排列
type Seat struct {
	ID   string
	Name string
}

// Player 对局中的玩家
type Player struct {
	ID   string
	Name string
	Seat int
	Hand card.Hand
}

// Team 玩家所属队伍
func (p *Player) Team() Team {
	return TeamOf(p.Seat)
}

// TableCard 桌面上的一张牌
type TableCard struct {
	Seat int
	Card card.Card
}

// TeamScore 单队得分
type TeamScore struct {
	Tens   int
	Tricks int
}

// Scores 双方得分
type Scores struct {
	TeamA TeamScore
	TeamB TeamScore
}

func (s *Scores) of(t Team) *TeamScore {
	if t == TeamA {
		return &s.TeamA
	}
	return &s.TeamB
}

// Game 一局游戏
type Game struct {
	roomID       string
	phase        Phase
	players      []*Player
	currentTurn  int
	baseSuit     card.Suit
	trumpSuit    card.Suit
	drawPile     card.Deck
	table        []TableCard
	scores       Scores
	captured     map[Team]card.Deck // 各队赢得的牌
	trumpPending bool
	outcome      *Outcome

	rng *rand.Rand
}

// Option 创建对局的可选项
type Option func(*Game)

// WithRand 指定洗牌随机源（测试用）
func WithRand(r *rand.Rand) Option {
	return func(g *Game) {
		g.rng = r
	}
}

// New 创建处于 LOBBY 阶段的对局
func New(roomID string, seats []Seat, opts ...Option) *Game {
	g := &Game{
		roomID: roomID,
		phase:  PhaseLobby,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.setSeats(seats)
	return g
}

// SetSeats 在 LOBBY 阶段按加入顺序刷新座位
func (g *Game) SetSeats(seats []Seat) error {
	if g.phase != PhaseLobby {
		return apperrors.ErrGameAlreadyStarted
	}
	g.setSeats(seats)
	return nil
}

func (g *Game) setSeats(seats []Seat) {
	if len(seats) > NumSeats {
		seats = seats[:NumSeats]
	}
	g.players = make([]*Player, len(seats))
	for i, s := range seats {
		g.players[i] = &Player{ID: s.ID, Name: s.Name, Seat: i}
	}
}

// RoomID 所属房间
func (g *Game) RoomID() string { return g.roomID }

// Phase 当前阶段
func (g *Game) Phase() Phase { return g.phase }

// IsActive 是否处于可出牌阶段
func (g *Game) IsActive() bool {
	return g.phase == PhaseTrumpDiscovery || g.phase == PhaseMainGame
}

// CurrentTurn 当前出牌座位
func (g *Game) CurrentTurn() int { return g.currentTurn }

// BaseSuit 本墩首牌花色，未出牌时为空
func (g *Game) BaseSuit() card.Suit { return g.baseSuit }

// TrumpSuit 主牌花色，未确定时为空
func (g *Game) TrumpSuit() card.Suit { return g.trumpSuit }

// TrumpPending 主牌已确定但剩余牌尚未发出
func (g *Game) TrumpPending() bool { return g.trumpPending }

// Scores 当前得分
func (g *Game) Scores() Scores { return g.scores }

// Outcome 结局，未结束时为 nil
func (g *Game) Outcome() *Outcome { return g.outcome }

// DrawPileCount 未发出的牌数
func (g *Game) DrawPileCount() int { return len(g.drawPile) }

// PlayerCount 入座人数
func (g *Game) PlayerCount() int { return len(g.players) }

// SeatOf 查找玩家座位
func (g *Game) SeatOf(id string) (int, bool) {
	for _, p := range g.players {
		if p.ID == id {
			return p.Seat, true
		}
	}
	return -1, false
}

// HandSize 指定座位的手牌数
func (g *Game) HandSize(seat int) int {
	if seat < 0 || seat >= len(g.players) {
		return 0
	}
	return len(g.players[seat].Hand)
}

// Hand 返回指定座位手牌的副本
func (g *Game) Hand(seat int) card.Hand {
	if seat < 0 || seat >= len(g.players) {
		return nil
	}
	return g.players[seat].Hand.Clone()
}

// Players 返回玩家副本（含手牌），供服务端内部使用，不可直接下发
func (g *Game) Players() []Player {
	out := make([]Player, len(g.players))
	for i, p := range g.players {
		out[i] = Player{ID: p.ID, Name: p.Name, Seat: p.Seat, Hand: p.Hand.Clone()}
	}
	return out
}

// Table 桌面牌副本
func (g *Game) Table() []TableCard {
	out := make([]TableCard, len(g.table))
	copy(out, g.table)
	return out
}

// CardCount 手牌、牌堆、桌面牌与已赢得牌的总数，开局后恒为 52
func (g *Game) CardCount() int {
	n := len(g.drawPile) + len(g.table)
	for _, p := range g.players {
		n += len(p.Hand)
	}
	for _, won := range g.captured {
		n += len(won)
	}
	return n
}

func (g *Game) allHandsEmpty() bool {
	for _, p := range g.players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}
