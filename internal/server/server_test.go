package server

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/catch-the-ten/internal/config"
	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/simulator"
	"github.com/palemoky/catch-the-ten/internal/transport"
)

type testServer struct {
	srv  *Server
	http *httptest.Server
	url  string
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *testServer {
	t.Helper()

	srv, err := NewServer(cfg, opts...)
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return &testServer{
		srv:  srv,
		http: hs,
		url:  "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws",
	}
}

func withMiniredis(t *testing.T) Option {
	t.Helper()
	mr := miniredis.RunT(t)
	return WithRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func (ts *testServer) stats(t *testing.T) statsResponse {
	t.Helper()

	resp, err := http.Get(ts.http.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s statsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	return s
}

func dial(t *testing.T, url string, c codec.Codec) (*transport.Client, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return transport.Dial(ctx, url, c)
}

func TestServer_HealthAndStats(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Default())

	resp, err := http.Get(ts.http.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	s := ts.stats(t)
	assert.Zero(t, s.Online)
	assert.Zero(t, s.Rooms)
	assert.False(t, s.Maintenance)
	assert.Nil(t, s.Games, "no redis, no game counters")
	assert.Nil(t, s.Recent)
}

func TestServer_ConnectAndJoin(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Default())

	client, err := dial(t, ts.url, codec.JSON)
	require.NoError(t, err)
	defer client.Close()
	assert.NotEmpty(t, client.PlayerID())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.JoinRoom("lobby-1", ""))
	msg, err := client.WaitFor(ctx, protocol.MsgJoinSuccess)
	require.NoError(t, err)
	joined, err := codec.ParsePayload[protocol.JoinSuccessPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "lobby-1", joined.RoomID)
	assert.Zero(t, joined.Seat)

	msg, err = client.WaitFor(ctx, protocol.MsgGameState)
	require.NoError(t, err)
	state, err := codec.ParsePayload[protocol.GameStatePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, string(game.PhaseLobby), state.Phase)
	require.Len(t, state.Players, 1)
	assert.Equal(t, client.PlayerID(), state.Players[0].ID)
	assert.True(t, strings.HasPrefix(state.Players[0].Name, "玩家 "))

	s := ts.stats(t)
	assert.Equal(t, 1, s.Online)
	assert.Equal(t, 1, s.Rooms)

	require.NoError(t, client.Ping())
	_, err = client.WaitFor(ctx, protocol.MsgPong)
	require.NoError(t, err)

	// 断开后房间被删除
	client.Close()
	require.Eventually(t, func() bool {
		return ts.srv.RoomManager().RoomCount() == 0 && ts.srv.GetOnlineCount() == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestServer_FullGameWithMirror(t *testing.T) {
	t.Parallel()

	for _, c := range []codec.Codec{codec.JSON, codec.Protobuf} {
		t.Run(c.Name(), func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			cfg.Server.Encoding = c.Name()
			ts := newTestServer(t, cfg, withMiniredis(t),
				WithGameOptions(game.WithRand(rand.New(rand.NewPCG(7, 7)))))

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()

			res, err := simulator.Run(ctx, simulator.Config{
				URL:    ts.url,
				RoomID: "e2e",
				Codec:  c,
				Games:  2,
			})
			require.NoError(t, err)
			require.Len(t, res.Games, 2)
			for _, over := range res.Games {
				assert.NotEqual(t, string(game.ReasonAborted), over.Reason)
				assert.Equal(t, 4, over.Scores.TeamA.Tens+over.Scores.TeamB.Tens)
				assert.Equal(t, 13, over.Scores.TeamA.Tricks+over.Scores.TeamB.Tricks)
			}

			require.Eventually(t, func() bool {
				return ts.stats(t).Games["games"] == 2
			}, 3*time.Second, 20*time.Millisecond)

			recent := ts.stats(t).Recent
			require.Len(t, recent, 2)
			assert.Equal(t, "e2e", recent[0].RoomID)
			assert.Len(t, recent[0].Players, 4)

			client, err := dial(t, ts.url, c)
			require.NoError(t, err)
			defer client.Close()

			require.NoError(t, client.GetStats())
			msg, err := client.WaitFor(ctx, protocol.MsgStatsResult)
			require.NoError(t, err)
			stats, err := codec.ParsePayload[protocol.StatsResultPayload](msg)
			require.NoError(t, err)
			assert.Equal(t, client.PlayerID(), stats.PlayerID)
			assert.Zero(t, stats.Games)

			// 统计按昵称累计：新连接用机器人的昵称入座后能查到之前的对局
			require.NoError(t, client.JoinRoom("stats-check", simulator.DefaultNames[0]))
			_, err = client.WaitFor(ctx, protocol.MsgJoinSuccess)
			require.NoError(t, err)
			require.NoError(t, client.GetStats())
			msg, err = client.WaitFor(ctx, protocol.MsgStatsResult)
			require.NoError(t, err)
			stats, err = codec.ParsePayload[protocol.StatsResultPayload](msg)
			require.NoError(t, err)
			assert.Equal(t, simulator.DefaultNames[0], stats.Name)
			assert.Equal(t, int64(2), stats.Games)

			require.NoError(t, client.GetLeaderboard(10))
			msg, err = client.WaitFor(ctx, protocol.MsgLeaderboardResult)
			require.NoError(t, err)
			board, err := codec.ParsePayload[protocol.LeaderboardResultPayload](msg)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(board.Entries), 4)
			for i, e := range board.Entries {
				assert.Equal(t, i+1, e.Rank)
				assert.Contains(t, simulator.DefaultNames, e.Name)
			}
		})
	}
}

func TestServer_StatsWithoutRedis(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Default())

	client, err := dial(t, ts.url, codec.JSON)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.GetStats())
	msg, err := client.WaitFor(ctx, protocol.MsgError)
	require.NoError(t, err)
	p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeStatsUnavailable, p.Code)
}

func TestServer_ConnectionRejections(t *testing.T) {
	t.Parallel()

	t.Run("maintenance", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer(t, config.Default())
		ts.srv.EnterMaintenanceMode()
		assert.True(t, ts.srv.IsMaintenanceMode())

		_, err := dial(t, ts.url, codec.JSON)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("blocked ip", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Security.BlockedIPs = []string{"127.0.0.1"}
		ts := newTestServer(t, cfg)

		_, err := dial(t, ts.url, codec.JSON)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "403")
	})

	t.Run("server full", func(t *testing.T) {
		t.Parallel()
		cfg := config.Default()
		cfg.Server.MaxConnections = 1
		ts := newTestServer(t, cfg)

		first, err := dial(t, ts.url, codec.JSON)
		require.NoError(t, err)
		defer first.Close()

		_, err = dial(t, ts.url, codec.JSON)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})
}

func TestServer_MessageFloodBlocksIP(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Security.MessageLimit.MaxPerSecond = 2
	ts := newTestServer(t, cfg)

	client, err := dial(t, ts.url, codec.JSON)
	require.NoError(t, err)
	defer client.Close()

	for range 3 * maxRateWarnings {
		if client.Ping() != nil {
			break
		}
	}

	select {
	case <-client.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("flooding client was not disconnected")
	}

	// 断开后该 IP 在封禁期内无法重新连接
	_, err = dial(t, ts.url, codec.JSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.False(t, ts.srv.ipFilter.IsAllowed("127.0.0.1"))
}

func TestServer_Shutdown(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Default())

	client, err := dial(t, ts.url, codec.JSON)
	require.NoError(t, err)
	defer client.Close()

	ts.srv.GracefulShutdown(time.Second)

	select {
	case <-client.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("client still connected after shutdown")
	}
}
