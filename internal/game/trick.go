package game

import (
	"fmt"

	"github.com/palemoky/catch-the-ten/internal/game/card"
)

// TrickResult 一墩的结算结果
type TrickResult struct {
	WinnerSeat   int
	WinnerTeam   Team
	WinningCard  card.Card
	TensCaptured int
	Cards        []TableCard
	Message      string
}

// WinningEntry 按规则找出一墩中获胜的牌：
// 有主牌时取最大的主牌，否则取最大的首牌花色。
func WinningEntry(table []TableCard, baseSuit, trumpSuit card.Suit) TableCard {
	best := table[0]
	for _, entry := range table[1:] {
		if card.CompareForTrick(best.Card, entry.Card, baseSuit, trumpSuit) == entry.Card {
			best = entry
		}
	}
	return best
}

// resolveTrick 结算满四张的一墩，清空桌面，获胜者下一墩先出
func (g *Game) resolveTrick() *TrickResult {
	cards := make([]card.Card, len(g.table))
	for i, entry := range g.table {
		cards[i] = entry.Card
	}

	winner := WinningEntry(g.table, g.baseSuit, g.trumpSuit)
	team := TeamOf(winner.Seat)
	tens := card.CountRank(cards, card.Rank10)

	g.captured[team] = append(g.captured[team], cards...)

	score := g.scores.of(team)
	score.Tricks++
	score.Tens += tens

	result := &TrickResult{
		WinnerSeat:   winner.Seat,
		WinnerTeam:   team,
		WinningCard:  winner.Card,
		TensCaptured: tens,
		Cards:        g.table,
		Message:      fmt.Sprintf("座位 %d（%s 队）赢得本墩", winner.Seat, team),
	}

	g.table = nil
	g.baseSuit = card.NoSuit
	g.currentTurn = winner.Seat
	return result
}
