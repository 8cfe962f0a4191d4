package handler

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/game/room"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/server/storage"
	"github.com/palemoky/catch-the-ten/internal/types"
)

// StatsStore 统计查询，由 Redis 镜像提供
type StatsStore interface {
	GetPlayerStats(ctx context.Context, name string) (*storage.PlayerStats, error)
	TopWinners(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error)
}

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server         types.ServerInterface
	RoomManager    *room.RoomManager
	MessageLimiter types.MessageLimiter // 可为 nil
	Stats          StatsStore           // 未启用 Redis 时为 nil
}

// Handler 消息处理器
type Handler struct {
	server         types.ServerInterface
	roomManager    *room.RoomManager
	messageLimiter types.MessageLimiter
	stats          StatsStore
	handlers       map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:         deps.Server,
		roomManager:    deps.RoomManager,
		messageLimiter: deps.MessageLimiter,
		stats:          deps.Stats,
	}
	if h.roomManager == nil {
		h.roomManager = room.NewRoomManager(nil)
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgJoinRoom:  h.handleJoinRoom,
		protocol.MsgLeaveRoom: h.handleLeaveRoom,
		protocol.MsgStartGame: h.handleStartGame,

		// 游戏操作
		protocol.MsgPlayCard: h.handlePlayCard,

		// 信息查询
		protocol.MsgGetRoomList:    func(c types.ClientInterface, _ *protocol.Message) { h.handleGetRoomList(c) },
		protocol.MsgGetStats:       func(c types.ClientInterface, _ *protocol.Message) { h.handleGetStats(c) },
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if h.messageLimiter != nil && !h.messageLimiter.Allow(client.GetID()) {
		klog.V(1).Infof("⚠️ 客户端 %s 消息过于频繁，丢弃 %s", client.GetID(), msg.Type)
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
		return
	}

	if handler, ok := h.handlers[msg.Type]; ok {
		klog.V(2).Infof("📨 %s <- %s (%d bytes)", client.GetID(), msg.Type, len(msg.Payload))
		handler(client, msg)
		return
	}

	klog.Warningf("⚠️  未知消息类型: '%s' (来自玩家: %s, ID: %s)", msg.Type, client.GetName(), client.GetID())
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// HandleDisconnect 连接断开时离开它加入的所有房间
func (h *Handler) HandleDisconnect(client types.ClientInterface) {
	for _, roomID := range client.Rooms() {
		h.leave(client, roomID)
	}
	if h.messageLimiter != nil {
		h.messageLimiter.RemoveClient(client.GetID())
	}
}
