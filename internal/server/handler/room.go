package handler

import (
	"errors"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/apperrors"
	"github.com/palemoky/catch-the-ten/internal/game/room"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/types"
)

// handleJoinRoom 处理加入房间，房间不存在时创建
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.MustNewMessage(protocol.MsgJoinError, protocol.JoinErrorPayload{
			Code:   protocol.ErrCodeServerMaintenance,
			Reason: "服务器维护中，暂停加入房间",
		}))
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	name := payload.Name
	if name == "" {
		name = room.DefaultName(client.GetID())
	}

	roomID := payload.RoomID
	_, err = h.roomManager.AddPlayer(roomID, client.GetID(), name, func(snap room.Snapshot) {
		client.SetName(name)
		client.JoinRoom(roomID)
		client.SendMessage(codec.MustNewMessage(protocol.MsgJoinSuccess, protocol.JoinSuccessPayload{
			RoomID: roomID,
			Seat:   snap.Seat,
		}))
		h.broadcastState(snap.Views)
	})
	if err != nil {
		client.SendMessage(joinError(err))
	}
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.LeaveRoomPayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	h.leave(client, payload.RoomID)
}

// leave 离开房间；对局因此中止时通知剩余成员
func (h *Handler) leave(client types.ClientInterface, roomID string) {
	defer client.LeaveRoom(roomID)

	_, err := h.roomManager.RemovePlayer(roomID, client.GetID(), func(snap room.Snapshot) {
		if snap.Removed.Aborted != nil {
			h.broadcast(snap.Views, gameOverMessage(snap.Removed.Aborted))
		}
		h.broadcastState(snap.Views)
	})
	if err != nil {
		// 不在房间中时静默忽略
		klog.V(2).Infof("玩家 %s 离开房间 %s: %v", client.GetID(), roomID, err)
	}
}

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.StartGamePayload](msg)
	if err != nil || payload.RoomID == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	_, err = h.roomManager.StartGame(payload.RoomID, func(snap room.Snapshot) {
		h.broadcastState(snap.Views)
	})
	if err != nil {
		client.SendMessage(invalidMove(err))
	}
}

// joinError 将错误转换为 join_error
func joinError(err error) *protocol.Message {
	code, reason := describe(err)
	return codec.MustNewMessage(protocol.MsgJoinError, protocol.JoinErrorPayload{Code: code, Reason: reason})
}

// invalidMove 将错误转换为 invalid_move
func invalidMove(err error) *protocol.Message {
	code, reason := describe(err)
	return codec.MustNewMessage(protocol.MsgInvalidMove, protocol.InvalidMovePayload{Code: code, Reason: reason})
}

func describe(err error) (int, string) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code, gameErr.Message
	}
	klog.Errorf("未预期的错误: %v", err)
	return protocol.ErrCodeUnknown, protocol.ErrorMessages[protocol.ErrCodeUnknown]
}
