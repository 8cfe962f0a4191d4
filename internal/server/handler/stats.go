package handler

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/types"
)

const (
	statsTimeout       = 2 * time.Second
	defaultBoardLimit  = 10
	maxLeaderboardSize = 50
)

// handleGetRoomList 获取房间列表
func (h *Handler) handleGetRoomList(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomList, protocol.RoomListPayload{
		Rooms: h.roomManager.GetRoomList(),
	}))
}

// handleGetStats 获取个人统计
func (h *Handler) handleGetStats(client types.ClientInterface) {
	if h.stats == nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeStatsUnavailable))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	// 统计按昵称累计，连接 ID 每次连接都不同
	name := client.GetName()
	stats, err := h.stats.GetPlayerStats(ctx, name)
	if err != nil {
		klog.Warningf("获取玩家 %s 统计失败: %v", name, err)
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeStatsUnavailable))
		return
	}

	winRate := 0.0
	if stats.Games > 0 {
		winRate = float64(stats.Wins) / float64(stats.Games) * 100
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
		PlayerID: client.GetID(),
		Name:     name,
		Games:    stats.Games,
		Wins:     stats.Wins,
		Tens:     stats.Tens,
		WinRate:  winRate,
	}))
}

// handleGetLeaderboard 获取胜场排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	if h.stats == nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeStatsUnavailable))
		return
	}

	limit := defaultBoardLimit
	if payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg); err == nil && payload.Limit > 0 {
		limit = min(payload.Limit, maxLeaderboardSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	entries, err := h.stats.TopWinners(ctx, limit)
	if err != nil {
		klog.Warningf("获取排行榜失败: %v", err)
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeStatsUnavailable))
		return
	}

	out := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.LeaderboardEntry{
			Rank: e.Rank,
			Name: e.Name,
			Wins: e.Wins,
		})
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Entries: out,
	}))
}
