package handler

import (
	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/game/room"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/protocol/convert"
	"github.com/palemoky/catch-the-ten/internal/types"
)

// handlePlayCard 处理出牌
//
// 成功后依次广播 trump_decided、trick_result、game_over（如有），
// 最后给每位成员发送各自视角的 game_state。
func (h *Handler) handlePlayCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil || payload.RoomID == "" || payload.CardID == "" {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	_, err = h.roomManager.PlayCard(payload.RoomID, client.GetID(), payload.CardID, func(snap room.Snapshot) {
		for _, event := range playEvents(snap.Play) {
			h.broadcast(snap.Views, event)
		}
		h.broadcastState(snap.Views)
	})
	if err != nil {
		client.SendMessage(invalidMove(err))
	}
}

// playEvents 出牌结果产生的广播事件，按发生顺序排列
func playEvents(res *game.PlayResult) []*protocol.Message {
	if res == nil {
		return nil
	}

	var events []*protocol.Message
	if res.TrumpDecided {
		events = append(events, codec.MustNewMessage(protocol.MsgTrumpDecided, protocol.TrumpDecidedPayload{
			TrumpSuit: string(res.TrumpSuit),
		}))
	}
	if res.Trick != nil {
		events = append(events, codec.MustNewMessage(protocol.MsgTrickResult, convert.TrickToPayload(res.Trick)))
	}
	if res.Outcome != nil {
		events = append(events, gameOverMessage(res.Outcome))
	}
	return events
}

func gameOverMessage(o *game.Outcome) *protocol.Message {
	return codec.MustNewMessage(protocol.MsgGameOver, convert.OutcomeToGameOver(o))
}
