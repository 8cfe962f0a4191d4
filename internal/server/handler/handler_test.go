package handler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/game/room"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/server/storage"
	"github.com/palemoky/catch-the-ten/internal/testutil"
)

type fixture struct {
	h       *Handler
	server  *testutil.SimpleServer
	clients []*testutil.SimpleClient
}

func newFixture(t *testing.T, seed uint64) *fixture {
	t.Helper()
	server := testutil.NewSimpleServer()
	rm := room.NewRoomManager(nil, game.WithRand(rand.New(rand.NewPCG(seed, seed))))
	return &fixture{
		h:      NewHandler(HandlerDeps{Server: server, RoomManager: rm}),
		server: server,
	}
}

func (f *fixture) connect(id string) *testutil.SimpleClient {
	c := &testutil.SimpleClient{ID: id}
	f.server.RegisterClient(id, c)
	f.clients = append(f.clients, c)
	return c
}

func (f *fixture) send(c *testutil.SimpleClient, t protocol.MessageType, payload any) {
	f.h.Handle(c, codec.MustNewMessage(t, payload))
}

// seatFour 四名玩家加入同一房间
func (f *fixture) seatFour(t *testing.T, roomID string) {
	t.Helper()
	for i := range game.NumSeats {
		c := f.connect(fmt.Sprintf("p%d", i))
		f.send(c, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: roomID, Name: fmt.Sprintf("Player%d", i)})
		require.NotNil(t, c.Last(protocol.MsgJoinSuccess))
	}
}

func decode[T any](t *testing.T, msg *protocol.Message) T {
	t.Helper()
	require.NotNil(t, msg)
	payload, err := codec.ParsePayload[T](msg)
	require.NoError(t, err)
	return *payload
}

func lastState(t *testing.T, c *testutil.SimpleClient) protocol.GameStatePayload {
	t.Helper()
	return decode[protocol.GameStatePayload](t, c.Last(protocol.MsgGameState))
}

// playTurn 轮到的玩家打出一张合法的牌
func (f *fixture) playTurn(t *testing.T, roomID string) {
	t.Helper()

	turn := lastState(t, f.clients[0]).CurrentTurnSeat
	var actor *testutil.SimpleClient
	var state protocol.GameStatePayload
	for _, c := range f.clients {
		s := lastState(t, c)
		if s.YourSeat != nil && *s.YourSeat == turn {
			actor, state = c, s
			break
		}
	}
	require.NotNil(t, actor, "no client holds seat %d", turn)

	hand := state.Players[turn].Hand
	require.NotEmpty(t, hand)
	pick := hand[0]
	for _, card := range hand {
		if state.BaseSuit != "" && card.Suit == state.BaseSuit {
			pick = card
			break
		}
	}

	rejected := len(actor.OfType(protocol.MsgInvalidMove))
	f.send(actor, protocol.MsgPlayCard, protocol.PlayCardPayload{RoomID: roomID, CardID: pick.ID})
	require.Len(t, actor.OfType(protocol.MsgInvalidMove), rejected, "legal card %s rejected", pick.ID)
}

func TestHandler_JoinRoom(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1)
	alice := f.connect("alice-id")
	f.send(alice, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1", Name: "Alice"})

	joined := decode[protocol.JoinSuccessPayload](t, alice.Last(protocol.MsgJoinSuccess))
	assert.Equal(t, "r1", joined.RoomID)
	assert.Equal(t, 0, joined.Seat)
	assert.Equal(t, []string{"r1"}, alice.Rooms())
	assert.Equal(t, "Alice", alice.GetName())

	// join_success 先于 game_state
	msgs := alice.Received()
	require.Len(t, msgs, 2)
	assert.Equal(t, protocol.MsgJoinSuccess, msgs[0].Type)
	assert.Equal(t, protocol.MsgGameState, msgs[1].Type)

	bob := f.connect("bob-id")
	f.send(bob, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1"})
	assert.Equal(t, 1, decode[protocol.JoinSuccessPayload](t, bob.Last(protocol.MsgJoinSuccess)).Seat)
	assert.Equal(t, "玩家 bob-", bob.GetName())

	state := lastState(t, alice)
	assert.Equal(t, string(game.PhaseLobby), state.Phase)
	require.Len(t, state.Players, 2)
	assert.Equal(t, "玩家 bob-", state.Players[1].Name)
	require.NotNil(t, state.YourSeat)
	assert.Equal(t, 0, *state.YourSeat)
}

func TestHandler_JoinRoomRejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 2)
	f.seatFour(t, "full")

	tests := []struct {
		name     string
		payload  any
		wantType protocol.MessageType
		wantCode int
	}{
		{
			name:     "room full",
			payload:  protocol.JoinRoomPayload{RoomID: "full"},
			wantType: protocol.MsgJoinError,
			wantCode: protocol.ErrCodeRoomFull,
		},
		{
			name:     "missing room id",
			payload:  protocol.JoinRoomPayload{Name: "x"},
			wantType: protocol.MsgError,
			wantCode: protocol.ErrCodeInvalidMsg,
		},
		{
			name:     "malformed payload",
			payload:  "not an object",
			wantType: protocol.MsgError,
			wantCode: protocol.ErrCodeInvalidMsg,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &testutil.SimpleClient{ID: "late-" + tt.name}
			f.h.Handle(c, codec.MustNewMessage(protocol.MsgJoinRoom, tt.payload))

			msgs := c.Received()
			require.Len(t, msgs, 1)
			require.Equal(t, tt.wantType, msgs[0].Type)
			if tt.wantType == protocol.MsgJoinError {
				assert.Equal(t, tt.wantCode, decode[protocol.JoinErrorPayload](t, msgs[0]).Code)
			} else {
				assert.Equal(t, tt.wantCode, decode[protocol.ErrorPayload](t, msgs[0]).Code)
			}
			assert.Empty(t, c.Rooms())
		})
	}

	// 开局后不能再加入
	f.send(f.clients[0], protocol.MsgStartGame, protocol.StartGamePayload{RoomID: "full"})
	f.clients[0].Reset()
	f.send(f.clients[0], protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "full", Name: "again"})
	joinErr := decode[protocol.JoinErrorPayload](t, f.clients[0].Last(protocol.MsgJoinError))
	assert.Equal(t, protocol.ErrCodeGameStarted, joinErr.Code)
	assert.NotEmpty(t, joinErr.Reason)
}

func TestHandler_JoinRoomMaintenance(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	f.server.Maintenance = true
	c := f.connect("p0")
	f.send(c, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1"})

	joinErr := decode[protocol.JoinErrorPayload](t, c.Last(protocol.MsgJoinError))
	assert.Equal(t, protocol.ErrCodeServerMaintenance, joinErr.Code)
	assert.Zero(t, f.h.roomManager.RoomCount())
}

func TestHandler_StartGame(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 4)
	for i := range 3 {
		c := f.connect(fmt.Sprintf("p%d", i))
		f.send(c, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1"})
	}

	f.send(f.clients[0], protocol.MsgStartGame, protocol.StartGamePayload{RoomID: "r1"})
	move := decode[protocol.InvalidMovePayload](t, f.clients[0].Last(protocol.MsgInvalidMove))
	assert.Equal(t, protocol.ErrCodeNotEnoughPlayers, move.Code)
	assert.Nil(t, f.clients[1].Last(protocol.MsgInvalidMove), "rejections go to the actor only")
	state := lastState(t, f.clients[0])
	assert.Len(t, state.Players, 3)
	assert.Equal(t, string(game.PhaseLobby), state.Phase)

	last := f.connect("p3")
	f.send(last, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1"})
	f.send(last, protocol.MsgStartGame, protocol.StartGamePayload{RoomID: "r1"})

	for seat, c := range f.clients {
		state := lastState(t, c)
		assert.Equal(t, string(game.PhaseTrumpDiscovery), state.Phase)
		require.NotNil(t, state.YourSeat)
		assert.Equal(t, seat, *state.YourSeat)
		assert.Equal(t, 32, state.DrawPileCount)
		for other, p := range state.Players {
			assert.Equal(t, game.InitialDealSize, p.CardsCount)
			if other == seat {
				assert.Len(t, p.Hand, game.InitialDealSize)
			} else {
				assert.Empty(t, p.Hand, "seat %d sees seat %d's hand", seat, other)
			}
		}
	}

	f.send(last, protocol.MsgStartGame, protocol.StartGamePayload{RoomID: "missing"})
	move = decode[protocol.InvalidMovePayload](t, last.Last(protocol.MsgInvalidMove))
	assert.Equal(t, protocol.ErrCodeRoomNotFound, move.Code)
}

func TestHandler_PlayCard(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 5)
	f.seatFour(t, "r1")
	f.send(f.clients[0], protocol.MsgStartGame, protocol.StartGamePayload{RoomID: "r1"})

	// 未轮到
	before := lastState(t, f.clients[1])
	f.send(f.clients[1], protocol.MsgPlayCard, protocol.PlayCardPayload{
		RoomID: "r1",
		CardID: before.Players[1].Hand[0].ID,
	})
	move := decode[protocol.InvalidMovePayload](t, f.clients[1].Last(protocol.MsgInvalidMove))
	assert.Equal(t, protocol.ErrCodeNotYourTurn, move.Code)
	assert.Equal(t, before, lastState(t, f.clients[1]), "rejected play must not broadcast")

	// 不在手中的牌
	f.send(f.clients[0], protocol.MsgPlayCard, protocol.PlayCardPayload{RoomID: "r1", CardID: before.Players[1].Hand[0].ID})
	move = decode[protocol.InvalidMovePayload](t, f.clients[0].Last(protocol.MsgInvalidMove))
	assert.Equal(t, protocol.ErrCodeCardNotHeld, move.Code)

	f.playTurn(t, "r1")
	for _, c := range f.clients {
		state := lastState(t, c)
		assert.Len(t, state.TableCards, 1)
		assert.Equal(t, 1, state.CurrentTurnSeat)
	}
}

func TestHandler_FullGameEventOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 6)
	f.seatFour(t, "r1")
	f.send(f.clients[0], protocol.MsgStartGame, protocol.StartGamePayload{RoomID: "r1"})

	for plays := 0; lastState(t, f.clients[0]).Phase != string(game.PhaseFinished); plays++ {
		require.Less(t, plays, 52)
		f.playTurn(t, "r1")
	}

	for _, c := range f.clients {
		require.Len(t, c.OfType(protocol.MsgTrumpDecided), 1)
		require.Len(t, c.OfType(protocol.MsgTrickResult), 13)
		require.Len(t, c.OfType(protocol.MsgGameOver), 1)

		msgs := c.Received()
		assert.Equal(t, protocol.MsgGameState, msgs[len(msgs)-1].Type, "state follows the final events")
		assert.Equal(t, protocol.MsgGameOver, msgs[len(msgs)-2].Type)

		// trump_decided 紧随其后的是同一手的 trick_result 或 game_state
		for i, m := range msgs {
			if m.Type == protocol.MsgTrumpDecided {
				require.Less(t, i+1, len(msgs))
				assert.Contains(t, []protocol.MessageType{protocol.MsgTrickResult, protocol.MsgGameState}, msgs[i+1].Type)
			}
		}

		over := decode[protocol.GameOverPayload](t, c.Last(protocol.MsgGameOver))
		assert.NotEqual(t, string(game.ReasonAborted), over.Reason)
		assert.Equal(t, 4, over.Scores.TeamA.Tens+over.Scores.TeamB.Tens)
		assert.Equal(t, 13, over.Scores.TeamA.Tricks+over.Scores.TeamB.Tricks)

		final := lastState(t, c)
		require.NotNil(t, final.Outcome)
		assert.Zero(t, final.DrawPileCount)
		assert.Empty(t, final.TableCards)
	}
}

func TestHandler_DisconnectAbortsGame(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 7)
	f.seatFour(t, "r1")
	f.send(f.clients[0], protocol.MsgStartGame, protocol.StartGamePayload{RoomID: "r1"})

	gone := f.clients[2]
	f.server.UnregisterClient(gone.ID)
	f.h.HandleDisconnect(gone)
	assert.Empty(t, gone.Rooms())

	for i, c := range f.clients {
		if i == 2 {
			continue
		}
		over := decode[protocol.GameOverPayload](t, c.Last(protocol.MsgGameOver))
		assert.Equal(t, string(game.ReasonAborted), over.Reason)
		assert.Contains(t, over.Result, "Player2")

		state := lastState(t, c)
		assert.Equal(t, string(game.PhaseFinished), state.Phase)
		assert.Len(t, state.Players, 4, "the finished game keeps its seats")
	}

	f.send(f.clients[0], protocol.MsgPlayCard, protocol.PlayCardPayload{RoomID: "r1", CardID: "HEARTS-2-0"})
	move := decode[protocol.InvalidMovePayload](t, f.clients[0].Last(protocol.MsgInvalidMove))
	assert.Equal(t, protocol.ErrCodeGameNotActive, move.Code)
}

func TestHandler_LeaveRoom(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 8)
	a := f.connect("a")
	b := f.connect("b")
	f.send(a, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1"})
	f.send(b, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1"})

	b.Reset()
	f.send(a, protocol.MsgLeaveRoom, protocol.LeaveRoomPayload{RoomID: "r1"})
	assert.Empty(t, a.Rooms())
	state := lastState(t, b)
	require.Len(t, state.Players, 1)
	assert.Equal(t, 0, *state.YourSeat, "remaining member is re-seated")
	assert.Nil(t, b.Last(protocol.MsgGameOver))

	// 不在房间时静默
	a.Reset()
	f.send(a, protocol.MsgLeaveRoom, protocol.LeaveRoomPayload{RoomID: "r1"})
	f.send(a, protocol.MsgLeaveRoom, protocol.LeaveRoomPayload{RoomID: "nope"})
	assert.Empty(t, a.Received())

	f.send(b, protocol.MsgLeaveRoom, protocol.LeaveRoomPayload{RoomID: "r1"})
	assert.Zero(t, f.h.roomManager.RoomCount())
}

func TestHandler_AbsentSinkIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 9)
	f.seatFour(t, "r1")
	// 连接已注销但尚未离开房间
	f.server.UnregisterClient("p3")
	f.clients[3].Reset()

	f.send(f.clients[0], protocol.MsgStartGame, protocol.StartGamePayload{RoomID: "r1"})
	assert.Empty(t, f.clients[3].Received())
	assert.Equal(t, string(game.PhaseTrumpDiscovery), lastState(t, f.clients[0]).Phase)
}

func TestHandler_UnknownAndRateLimited(t *testing.T) {
	t.Parallel()

	limiter := new(testutil.MockMessageLimiter)
	limiter.On("Allow", "ok").Return(true)
	limiter.On("Allow", "spam").Return(false)
	limiter.On("RemoveClient", "ok").Return()

	h := NewHandler(HandlerDeps{Server: testutil.NewSimpleServer(), MessageLimiter: limiter})

	ok := &testutil.SimpleClient{ID: "ok"}
	h.Handle(ok, &protocol.Message{Type: "bogus"})
	assert.Equal(t, protocol.ErrCodeInvalidMsg, decode[protocol.ErrorPayload](t, ok.Last(protocol.MsgError)).Code)

	spam := &testutil.SimpleClient{ID: "spam"}
	h.Handle(spam, codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1"}))
	assert.Equal(t, protocol.ErrCodeRateLimit, decode[protocol.ErrorPayload](t, spam.Last(protocol.MsgError)).Code)
	assert.Nil(t, spam.Last(protocol.MsgJoinSuccess))
	assert.Zero(t, h.roomManager.RoomCount())

	h.HandleDisconnect(ok)
	limiter.AssertExpectations(t)
}

func TestHandler_Ping(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10)
	c := f.connect("p0")
	f.send(c, protocol.MsgPing, protocol.PingPayload{Timestamp: 12345})

	pong := decode[protocol.PongPayload](t, c.Last(protocol.MsgPong))
	assert.Equal(t, int64(12345), pong.ClientTimestamp)
	assert.Positive(t, pong.ServerTimestamp)
}

func TestHandler_GetRoomList(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 11)
	c := f.connect("p0")
	f.send(c, protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "open"})
	f.h.Handle(c, &protocol.Message{Type: protocol.MsgGetRoomList})

	list := decode[protocol.RoomListPayload](t, c.Last(protocol.MsgRoomList))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "open", list.Rooms[0].RoomID)
	assert.Equal(t, 1, list.Rooms[0].PlayerCount)
	assert.Equal(t, game.NumSeats, list.Rooms[0].MaxPlayers)
}

func TestHandler_Stats(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		h := NewHandler(HandlerDeps{Server: testutil.NewSimpleServer()})
		c := &testutil.SimpleClient{ID: "p0"}
		h.Handle(c, &protocol.Message{Type: protocol.MsgGetStats})
		h.Handle(c, &protocol.Message{Type: protocol.MsgGetLeaderboard})

		errs := c.OfType(protocol.MsgError)
		require.Len(t, errs, 2)
		for _, m := range errs {
			assert.Equal(t, protocol.ErrCodeStatsUnavailable, decode[protocol.ErrorPayload](t, m).Code)
		}
	})

	t.Run("player stats", func(t *testing.T) {
		t.Parallel()
		stats := new(testutil.MockStatsStore)
		stats.On("GetPlayerStats", mock.Anything, "Alice").Return(&storage.PlayerStats{Games: 4, Wins: 1, Tens: 9}, nil)
		stats.On("GetPlayerStats", mock.Anything, "Bob").Return(nil, errors.New("redis down"))

		h := NewHandler(HandlerDeps{Server: testutil.NewSimpleServer(), Stats: stats})
		c := &testutil.SimpleClient{ID: "p0", Name: "Alice"}
		h.Handle(c, &protocol.Message{Type: protocol.MsgGetStats})

		got := decode[protocol.StatsResultPayload](t, c.Last(protocol.MsgStatsResult))
		assert.Equal(t, "p0", got.PlayerID)
		assert.Equal(t, "Alice", got.Name)
		assert.Equal(t, int64(4), got.Games)
		assert.InDelta(t, 25.0, got.WinRate, 0.001)

		broken := &testutil.SimpleClient{ID: "p1", Name: "Bob"}
		h.Handle(broken, &protocol.Message{Type: protocol.MsgGetStats})
		assert.Equal(t, protocol.ErrCodeStatsUnavailable, decode[protocol.ErrorPayload](t, broken.Last(protocol.MsgError)).Code)
		stats.AssertExpectations(t)
	})

	t.Run("leaderboard", func(t *testing.T) {
		t.Parallel()
		stats := new(testutil.MockStatsStore)
		stats.On("TopWinners", mock.Anything, defaultBoardLimit).Return([]storage.LeaderboardEntry{
			{Rank: 1, Name: "Alice", Wins: 3},
		}, nil)
		stats.On("TopWinners", mock.Anything, maxLeaderboardSize).Return([]storage.LeaderboardEntry{}, nil)

		h := NewHandler(HandlerDeps{Server: testutil.NewSimpleServer(), Stats: stats})
		c := &testutil.SimpleClient{ID: "p0"}
		h.Handle(c, &protocol.Message{Type: protocol.MsgGetLeaderboard})

		board := decode[protocol.LeaderboardResultPayload](t, c.Last(protocol.MsgLeaderboardResult))
		require.Len(t, board.Entries, 1)
		assert.Equal(t, "Alice", board.Entries[0].Name)
		assert.Equal(t, int64(3), board.Entries[0].Wins)

		h.Handle(c, codec.MustNewMessage(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: 1000}))
		stats.AssertExpectations(t)
	})
}

func TestHandler_JoinRoomWithMocks(t *testing.T) {
	t.Parallel()

	client := new(testutil.MockClient)
	client.On("GetID").Return("m1")
	client.On("SetName", "Mock").Return()
	client.On("JoinRoom", "r1").Return()
	client.On("SendMessage", mock.MatchedBy(func(m *protocol.Message) bool {
		return m.Type == protocol.MsgJoinSuccess || m.Type == protocol.MsgGameState
	})).Return()

	server := new(testutil.MockServer)
	server.On("IsMaintenanceMode").Return(false)
	server.On("GetClientByID", "m1").Return(client)

	h := NewHandler(HandlerDeps{Server: server})
	h.Handle(client, codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "r1", Name: "Mock"}))

	client.AssertExpectations(t)
	server.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "SendMessage", 2)
}
