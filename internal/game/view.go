package game

import "github.com/palemoky/catch-the-ten/internal/game/card"

// PublicView 某个观察者可见的对局快照
type PublicView struct {
	RoomID          string
	Phase           Phase
	BaseSuit        card.Suit
	TrumpSuit       card.Suit
	CurrentTurnSeat int
	Players         []PlayerView
	Table           []TableCard
	Scores          Scores
	DrawPileCount   int
	YourSeat        *int // 观察者未入座时为 nil
	Outcome         *Outcome
}

// PlayerView 观察者看到的玩家信息，只有自己的手牌可见
type PlayerView struct {
	ID        string
	Name      string
	Seat      int
	Team      Team
	Hand      card.Hand // 非观察者本人时为 nil
	HandCount int
}

// Project 生成 viewerID 视角的快照。
// 这是唯一的裁剪点：状态机本身从不隐藏信息，下发前必须经过这里。
func (g *Game) Project(viewerID string) PublicView {
	view := PublicView{
		RoomID:          g.roomID,
		Phase:           g.phase,
		BaseSuit:        g.baseSuit,
		TrumpSuit:       g.trumpSuit,
		CurrentTurnSeat: g.currentTurn,
		Players:         make([]PlayerView, len(g.players)),
		Table:           g.Table(),
		Scores:          g.scores,
		DrawPileCount:   len(g.drawPile),
	}

	for i, p := range g.players {
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			Team:      p.Team(),
			HandCount: len(p.Hand),
		}
		if p.ID == viewerID {
			pv.Hand = p.Hand.Clone()
			seat := p.Seat
			view.YourSeat = &seat
		}
		view.Players[i] = pv
	}

	if g.outcome != nil {
		o := *g.outcome
		view.Outcome = &o
	}
	return view
}
