package handler

import (
	"github.com/palemoky/catch-the-ten/internal/game/room"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/protocol/convert"
)

// sendTo 发给仍在线的玩家，连接已断开时忽略
func (h *Handler) sendTo(playerID string, msg *protocol.Message) {
	if client := h.server.GetClientByID(playerID); client != nil {
		client.SendMessage(msg)
	}
}

// broadcast 同一条消息发给房间内所有成员
func (h *Handler) broadcast(views []room.Viewer, msg *protocol.Message) {
	for _, v := range views {
		h.sendTo(v.PlayerID, msg)
	}
}

// broadcastState 每位成员收到按自己视角裁剪的 game_state
func (h *Handler) broadcastState(views []room.Viewer) {
	for _, v := range views {
		h.sendTo(v.PlayerID, codec.MustNewMessage(protocol.MsgGameState, convert.ViewToGameState(v.View)))
	}
}
