package room

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/apperrors"
	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/game/card"
)

// Member 房间成员，按加入顺序排列，下标即座位号
type Member struct {
	ID   string
	Name string
}

// Room 游戏房间
//
// 对房间及其对局的所有修改都在 mu 下进行。
type Room struct {
	ID        string    // 房间号
	CreatedAt time.Time // 创建时间

	members  []Member
	game     *game.Game
	gameOpts []game.Option
	closed   bool // 已从管理器移除

	mu       sync.Mutex
	notifyMu sync.Mutex // 保证通知顺序与修改顺序一致
}

// Viewer 某位成员看到的对局视图
type Viewer struct {
	PlayerID string
	View     game.PublicView
}

func newRoom(id string, gameOpts []game.Option) *Room {
	return &Room{
		ID:        id,
		CreatedAt: time.Now(),
		members:   make([]Member, 0, game.NumSeats),
		gameOpts:  gameOpts,
	}
}

// DefaultName 未提供昵称时的默认昵称
func DefaultName(playerID string) string {
	short := playerID
	if len(short) > 4 {
		short = short[:4]
	}
	return fmt.Sprintf("玩家 %s", short)
}

func (r *Room) phase() game.Phase {
	if r.game == nil {
		return game.PhaseLobby
	}
	return r.game.Phase()
}

func (r *Room) seatOf(playerID string) (int, bool) {
	for i, m := range r.members {
		if m.ID == playerID {
			return i, true
		}
	}
	return -1, false
}

func (r *Room) seats() []game.Seat {
	seats := make([]game.Seat, len(r.members))
	for i, m := range r.members {
		seats[i] = game.Seat{ID: m.ID, Name: m.Name}
	}
	return seats
}

func (r *Room) views() []Viewer {
	if r.game == nil {
		return nil
	}
	out := make([]Viewer, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, Viewer{PlayerID: m.ID, View: r.game.Project(m.ID)})
	}
	return out
}

// add 加入或刷新昵称，返回座位号
func (r *Room) add(playerID, name string) (int, error) {
	if r.phase() != game.PhaseLobby {
		return -1, apperrors.ErrGameAlreadyStarted
	}

	if seat, ok := r.seatOf(playerID); ok {
		r.members[seat].Name = name
		return seat, r.game.SetSeats(r.seats())
	}

	if len(r.members) >= game.NumSeats {
		return -1, apperrors.ErrRoomFull
	}

	r.members = append(r.members, Member{ID: playerID, Name: name})
	if r.game == nil {
		r.game = game.New(r.ID, r.seats(), r.gameOpts...)
		return len(r.members) - 1, nil
	}
	return len(r.members) - 1, r.game.SetSeats(r.seats())
}

// remove 移除成员；对局进行中时中止对局
func (r *Room) remove(playerID string) (removed Member, aborted *game.Outcome, ok bool) {
	seat, ok := r.seatOf(playerID)
	if !ok {
		return Member{}, nil, false
	}

	removed = r.members[seat]
	r.members = append(r.members[:seat], r.members[seat+1:]...)

	switch {
	case r.game == nil:
	case r.game.IsActive():
		aborted = r.game.Abort(fmt.Sprintf("%s 离开了房间，对局提前结束", removed.Name))
	case r.game.Phase() == game.PhaseLobby:
		// 剩余成员按加入顺序重新入座
		_ = r.game.SetSeats(r.seats())
	}
	return removed, aborted, true
}

// start 开局；上一局已结束且人数已满时开始新的一局
func (r *Room) start() error {
	if r.game != nil && r.game.Phase() == game.PhaseFinished {
		if len(r.members) < game.NumSeats {
			return apperrors.ErrNotEnoughPlayers
		}
		r.game = game.New(r.ID, r.seats(), r.gameOpts...)
	}
	if r.game == nil {
		return apperrors.ErrNotEnoughPlayers
	}
	return r.game.Start()
}

func (r *Room) play(playerID, cardID string) (*game.PlayResult, error) {
	if r.game == nil {
		return nil, apperrors.ErrGameNotActive
	}
	res, err := r.game.PlayCardBy(playerID, cardID)
	if err == nil {
		if n := r.game.CardCount(); n != card.DeckSize {
			klog.Errorf("❌ 房间 %s 牌数异常: %d 张", r.ID, n)
		}
	}
	return res, err
}
