package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/catch-the-ten/internal/game/card"
)

func fourSeats() []Seat {
	return []Seat{
		{ID: "p0", Name: "Alice"},
		{ID: "p1", Name: "Bob"},
		{ID: "p2", Name: "Charlie"},
		{ID: "p3", Name: "Dave"},
	}
}

func newStartedGame(t *testing.T, seed uint64) *Game {
	t.Helper()
	g := New("room-1", fourSeats(), WithRand(rand.New(rand.NewPCG(seed, seed))))
	require.NoError(t, g.Start())
	return g
}

// rig 替换手牌，其余的牌按建牌顺序放入牌堆
func rig(t *testing.T, g *Game, hands [NumSeats][]string) {
	t.Helper()

	byFace := make(map[string]card.Card, card.DeckSize)
	for _, c := range card.NewDeck() {
		byFace[c.String()] = c
	}

	used := make(map[string]bool)
	for seat, faces := range hands {
		hand := make(card.Hand, 0, len(faces))
		for _, face := range faces {
			c, ok := byFace[face]
			require.True(t, ok, "unknown card %s", face)
			require.False(t, used[face], "card %s dealt twice", face)
			used[face] = true
			hand = append(hand, c)
		}
		g.players[seat].Hand = hand
	}

	g.drawPile = nil
	for _, c := range card.NewDeck() {
		if !used[c.String()] {
			g.drawPile = append(g.drawPile, c)
		}
	}
	require.Equal(t, card.DeckSize, g.CardCount())
}

func idOf(t *testing.T, g *Game, seat int, face string) string {
	t.Helper()
	for _, c := range g.players[seat].Hand {
		if c.String() == face {
			return c.ID
		}
	}
	t.Fatalf("seat %d does not hold %s", seat, face)
	return ""
}

// legalCards 当前出牌者可以出的牌
func legalCards(g *Game) card.Hand {
	hand := g.players[g.currentTurn].Hand
	if g.baseSuit == card.NoSuit || !hand.HasSuit(g.baseSuit) {
		return hand
	}
	var out card.Hand
	for _, c := range hand {
		if c.Suit == g.baseSuit {
			out = append(out, c)
		}
	}
	return out
}

// playFirstLegal 当前出牌者打出第一张合法的牌
func playFirstLegal(t *testing.T, g *Game) *PlayResult {
	t.Helper()
	c := legalCards(g)[0]
	res, err := g.PlayCard(g.currentTurn, c.ID)
	require.NoError(t, err)
	return res
}
