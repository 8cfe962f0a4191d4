package handler

import (
	"time"

	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/types"
)

// handlePing 处理心跳消息
func (h *Handler) handlePing(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}
