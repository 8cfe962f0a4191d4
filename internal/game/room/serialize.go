package room

import (
	"time"

	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/server/storage"
)

// toRoomData 生成房间快照，调用方需持有 r.mu
func (r *Room) toRoomData() *storage.RoomData {
	data := &storage.RoomData{
		ID:        r.ID,
		Phase:     string(r.phase()),
		Players:   make([]storage.PlayerData, 0, len(r.members)),
		CreatedAt: r.CreatedAt.Unix(),
		UpdatedAt: time.Now().Unix(),
	}
	if g := r.game; g != nil {
		data.TrumpSuit = string(g.TrumpSuit())
		data.TrumpPending = g.TrumpPending()
		data.DrawPile = g.DrawPileCount()
		if g.IsActive() {
			turn := g.CurrentTurn()
			data.CurrentTurn = &turn
		}
	}

	for seat, m := range r.members {
		p := storage.PlayerData{
			ID:   m.ID,
			Name: m.Name,
			Seat: seat,
			Team: string(game.TeamOf(seat)),
		}
		if r.game != nil {
			if s, ok := r.game.SeatOf(m.ID); ok {
				p.CardsCount = r.game.HandSize(s)
			}
		}
		data.Players = append(data.Players, p)
	}
	return data
}

// toResultData 生成对局结果，玩家取自对局座位，调用方需持有 r.mu
func (r *Room) toResultData(o *game.Outcome) *storage.ResultData {
	result := &storage.ResultData{
		RoomID:     r.ID,
		Winner:     string(o.Winner),
		Reason:     string(o.Reason),
		Message:    o.Message,
		TeamA:      storage.TeamScoreData{Tens: o.Scores.TeamA.Tens, Tricks: o.Scores.TeamA.Tricks},
		TeamB:      storage.TeamScoreData{Tens: o.Scores.TeamB.Tens, Tricks: o.Scores.TeamB.Tricks},
		FinishedAt: time.Now().Unix(),
	}
	if r.game == nil {
		return result
	}
	for _, p := range r.game.Players() {
		result.Players = append(result.Players, storage.PlayerData{
			ID:   p.ID,
			Name: p.Name,
			Seat: p.Seat,
			Team: string(p.Team()),
		})
	}
	return result
}
