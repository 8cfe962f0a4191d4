package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/game/card"
	"github.com/palemoky/catch-the-ten/internal/protocol"
)

func TestCardConversion(t *testing.T) {
	t.Parallel()

	deck := card.NewDeck()
	infos := CardsToInfos(deck)
	require.Len(t, infos, card.DeckSize)
	assert.Equal(t, protocol.CardInfo{ID: "HEARTS-10-8", Suit: "HEARTS", Rank: "10"}, infos[8])

	back, err := InfosToCards(infos)
	require.NoError(t, err)
	assert.Equal(t, []card.Card(deck), back)

	assert.Nil(t, CardsToInfos(nil))
}

func TestInfoToCard_Invalid(t *testing.T) {
	t.Parallel()

	_, err := InfoToCard(protocol.CardInfo{ID: "x", Suit: "STARS", Rank: "2"})
	assert.Error(t, err)

	_, err = InfoToCard(protocol.CardInfo{ID: "x", Suit: "HEARTS", Rank: "1"})
	assert.Error(t, err)

	_, err = InfosToCards([]protocol.CardInfo{{ID: "y", Suit: "", Rank: "A"}})
	assert.Error(t, err)
}

func TestViewToGameState(t *testing.T) {
	t.Parallel()

	g := game.New("r1", []game.Seat{
		{ID: "p0", Name: "Alice"}, {ID: "p1", Name: "Bob"},
		{ID: "p2", Name: "Charlie"}, {ID: "p3", Name: "Dave"},
	})
	require.NoError(t, g.Start())

	payload := ViewToGameState(g.Project("p1"))
	assert.Equal(t, "r1", payload.RoomID)
	assert.Equal(t, "TRUMP_DISCOVERY", payload.Phase)
	assert.Empty(t, payload.TrumpSuit)
	assert.Equal(t, 32, payload.DrawPileCount)
	require.NotNil(t, payload.YourSeat)
	assert.Equal(t, 1, *payload.YourSeat)
	assert.Nil(t, payload.Outcome)
	assert.NotNil(t, payload.TableCards)

	require.Len(t, payload.Players, 4)
	for _, p := range payload.Players {
		assert.Equal(t, game.InitialDealSize, p.CardsCount)
		if p.ID == "p1" {
			assert.Len(t, p.Hand, game.InitialDealSize)
		} else {
			assert.Empty(t, p.Hand, "other hands stay hidden")
		}
	}
	assert.Equal(t, "B", payload.Players[1].Team)

	outsider := ViewToGameState(g.Project("nobody"))
	assert.Nil(t, outsider.YourSeat)
}

func TestViewToGameState_EmptyOwnHand(t *testing.T) {
	t.Parallel()

	seat := 0
	view := game.PublicView{
		RoomID: "r1",
		Phase:  game.PhaseFinished,
		Players: []game.PlayerView{
			{ID: "p0", Seat: 0, Team: game.TeamA},
			{ID: "p1", Seat: 1, Team: game.TeamB},
		},
		YourSeat: &seat,
	}

	payload := ViewToGameState(view)
	require.NotNil(t, payload.Players[0].Hand)
	assert.Empty(t, payload.Players[0].Hand)
	assert.Nil(t, payload.Players[1].Hand)

	data, err := json.Marshal(payload.Players)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw[0]["hand"], "own empty hand is sent as []")
	assert.NotContains(t, raw[1], "hand", "hidden hands are omitted")
}

func TestOutcomeConversion(t *testing.T) {
	t.Parallel()

	assert.Nil(t, OutcomeToInfo(nil))

	o := game.Decide(game.Scores{
		TeamA: game.TeamScore{Tens: 3, Tricks: 5},
		TeamB: game.TeamScore{Tens: 1, Tricks: 8},
	})
	info := OutcomeToInfo(o)
	require.NotNil(t, info)
	assert.Equal(t, "A", info.Winner)
	assert.Equal(t, "tens", info.Reason)
	assert.Equal(t, o.Message, info.Result)

	over := OutcomeToGameOver(o)
	assert.Equal(t, 3, over.Scores.TeamA.Tens)
	assert.Equal(t, 8, over.Scores.TeamB.Tricks)
}

func TestTrickToPayload(t *testing.T) {
	t.Parallel()

	p := TrickToPayload(&game.TrickResult{WinnerSeat: 2, TensCaptured: 1, Message: "座位 2（A 队）赢得本墩"})
	assert.Equal(t, protocol.TrickResultPayload{WinnerSeat: 2, TensCaptured: 1, Message: "座位 2（A 队）赢得本墩"}, p)
}
