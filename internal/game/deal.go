package game

import (
	"github.com/palemoky/catch-the-ten/internal/apperrors"
	"github.com/palemoky/catch-the-ten/internal/game/card"
)

// Start 洗牌并首轮每人发 5 张，进入 TRUMP_DISCOVERY
func (g *Game) Start() error {
	if g.phase != PhaseLobby {
		return apperrors.ErrGameAlreadyStarted
	}
	if len(g.players) != NumSeats {
		return apperrors.ErrNotEnoughPlayers
	}

	g.drawPile = card.NewShuffledDeck(g.rng)
	for _, p := range g.players {
		p.Hand = make(card.Hand, 0, card.DeckSize/NumSeats)
	}
	g.deal(InitialDealSize)

	g.phase = PhaseTrumpDiscovery
	g.currentTurn = 0
	g.baseSuit = card.NoSuit
	g.trumpSuit = card.NoSuit
	g.table = nil
	g.scores = Scores{}
	g.captured = make(map[Team]card.Deck, 2)
	g.trumpPending = false
	g.outcome = nil
	return nil
}

// deal 从座位 0 开始轮流发牌，每人 count 张
func (g *Game) deal(count int) {
	for round := 0; round < count; round++ {
		for _, p := range g.players {
			if len(g.drawPile) == 0 {
				return
			}
			p.Hand = append(p.Hand, g.drawPile[0])
			g.drawPile = g.drawPile[1:]
		}
	}
}

// dealRemaining 重新洗剩余的牌并全部发出，从座位 0 开始
func (g *Game) dealRemaining() {
	g.drawPile.Shuffle(g.rng)
	seat := 0
	for _, c := range g.drawPile {
		p := g.players[seat]
		p.Hand = append(p.Hand, c)
		seat = (seat + 1) % len(g.players)
	}
	g.drawPile = nil
}
