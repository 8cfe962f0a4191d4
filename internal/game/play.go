package game

import (
	"github.com/palemoky/catch-the-ten/internal/apperrors"
	"github.com/palemoky/catch-the-ten/internal/game/card"
)

// PlayResult 一次成功出牌引起的状态变化
type PlayResult struct {
	Seat         int
	Card         card.Card
	TrumpDecided bool
	TrumpSuit    card.Suit
	Trick        *TrickResult // 本次出牌凑满四张时非空
	DeferredDeal bool         // 本次出牌触发了剩余牌的发放
	Outcome      *Outcome     // 本次出牌结束了对局时非空
}

// PlayCardBy 按玩家 ID 出牌
func (g *Game) PlayCardBy(playerID, cardID string) (*PlayResult, error) {
	if !g.IsActive() {
		return nil, apperrors.ErrGameNotActive
	}
	seat, ok := g.SeatOf(playerID)
	if !ok {
		return nil, apperrors.ErrNotSeated
	}
	return g.PlayCard(seat, cardID)
}

// PlayCard 校验并执行出牌。校验全部通过前不会修改任何状态。
func (g *Game) PlayCard(seat int, cardID string) (*PlayResult, error) {
	c, err := g.validatePlay(seat, cardID)
	if err != nil {
		return nil, err
	}

	p := g.players[seat]
	hadBaseSuit := g.baseSuit != card.NoSuit && p.Hand.HasSuit(g.baseSuit)
	p.Hand = p.Hand.Remove(cardID)

	result := &PlayResult{Seat: seat, Card: c}

	if g.baseSuit == card.NoSuit {
		g.baseSuit = c.Suit
	} else if g.trumpSuit == card.NoSuit && c.Suit != g.baseSuit && !hadBaseSuit {
		// 第一次被迫垫牌决定主牌
		g.trumpSuit = c.Suit
		g.trumpPending = true
		result.TrumpDecided = true
		result.TrumpSuit = c.Suit
	}

	g.table = append(g.table, TableCard{Seat: seat, Card: c})

	if len(g.table) < NumSeats {
		g.currentTurn = (seat + 1) % NumSeats
		return result, nil
	}

	result.Trick = g.resolveTrick()

	if g.phase == PhaseTrumpDiscovery {
		switch {
		case g.trumpPending:
			result.DeferredDeal = len(g.drawPile) > 0
			g.dealRemaining()
			g.phase = PhaseMainGame
			g.trumpPending = false
		case g.allHandsEmpty() && len(g.drawPile) > 0:
			// 首轮五墩无人垫牌，主牌仍未确定，先发出剩余的牌
			g.dealRemaining()
			result.DeferredDeal = true
		}
	}

	if g.allHandsEmpty() && len(g.drawPile) == 0 {
		g.finish()
		result.Outcome = g.outcome
	}

	return result, nil
}

func (g *Game) validatePlay(seat int, cardID string) (card.Card, error) {
	if !g.IsActive() {
		return card.Card{}, apperrors.ErrGameNotActive
	}
	if seat < 0 || seat >= len(g.players) {
		return card.Card{}, apperrors.ErrNotSeated
	}
	if seat != g.currentTurn {
		return card.Card{}, apperrors.ErrNotYourTurn
	}

	hand := g.players[seat].Hand
	c, ok := hand.Find(cardID)
	if !ok {
		return card.Card{}, apperrors.ErrCardNotHeld
	}
	if g.baseSuit != card.NoSuit && c.Suit != g.baseSuit && hand.HasSuit(g.baseSuit) {
		return card.Card{}, apperrors.ErrMustFollowSuit
	}
	return c, nil
}
