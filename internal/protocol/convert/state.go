package convert

import (
	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/protocol"
)

// ViewToGameState 将某位观察者的视图转换为 game_state 负载
func ViewToGameState(v game.PublicView) protocol.GameStatePayload {
	payload := protocol.GameStatePayload{
		RoomID:          v.RoomID,
		Phase:           string(v.Phase),
		BaseSuit:        string(v.BaseSuit),
		TrumpSuit:       string(v.TrumpSuit),
		CurrentTurnSeat: v.CurrentTurnSeat,
		Players:         make([]protocol.PlayerInfo, len(v.Players)),
		TableCards:      make([]protocol.TableCardInfo, len(v.Table)),
		Scores:          ScoresToInfo(v.Scores),
		DrawPileCount:   v.DrawPileCount,
		YourSeat:        v.YourSeat,
		Outcome:         OutcomeToInfo(v.Outcome),
	}

	for i, p := range v.Players {
		info := protocol.PlayerInfo{
			ID:         p.ID,
			Name:       p.Name,
			Seat:       p.Seat,
			Team:       string(p.Team),
			CardsCount: p.HandCount,
		}
		if v.YourSeat != nil && p.Seat == *v.YourSeat {
			// 自己的手牌即使为空也下发，与隐藏的手牌区分
			info.Hand = CardsToInfos(p.Hand)
			if info.Hand == nil {
				info.Hand = []protocol.CardInfo{}
			}
		}
		payload.Players[i] = info
	}
	for i, tc := range v.Table {
		payload.TableCards[i] = protocol.TableCardInfo{Seat: tc.Seat, Card: CardToInfo(tc.Card)}
	}
	return payload
}

// ScoresToInfo 转换双方得分
func ScoresToInfo(s game.Scores) protocol.ScoresInfo {
	return protocol.ScoresInfo{
		TeamA: protocol.TeamScoreInfo{Tens: s.TeamA.Tens, Tricks: s.TeamA.Tricks},
		TeamB: protocol.TeamScoreInfo{Tens: s.TeamB.Tens, Tricks: s.TeamB.Tricks},
	}
}

// OutcomeToInfo 转换结局，未结束时返回 nil
func OutcomeToInfo(o *game.Outcome) *protocol.OutcomeInfo {
	if o == nil {
		return nil
	}
	return &protocol.OutcomeInfo{
		Result: o.Message,
		Reason: string(o.Reason),
		Winner: string(o.Winner),
	}
}

// OutcomeToGameOver 生成 game_over 负载
func OutcomeToGameOver(o *game.Outcome) protocol.GameOverPayload {
	return protocol.GameOverPayload{
		Result: o.Message,
		Reason: string(o.Reason),
		Winner: string(o.Winner),
		Scores: ScoresToInfo(o.Scores),
	}
}

// TrickToPayload 生成 trick_result 负载
func TrickToPayload(t *game.TrickResult) protocol.TrickResultPayload {
	return protocol.TrickResultPayload{
		WinnerSeat:   t.WinnerSeat,
		TensCaptured: t.TensCaptured,
		Message:      t.Message,
	}
}
