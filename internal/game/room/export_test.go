package room

import "github.com/palemoky/catch-the-ten/internal/game"

// 测试用的加锁读取

func (r *Room) Members() []Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Member(nil), r.members...)
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) SeatOf(playerID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seatOf(playerID)
}

func (r *Room) Phase() game.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase()
}

func (r *Room) ViewFor(playerID string) (game.PublicView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.game == nil {
		return game.PublicView{}, false
	}
	return r.game.Project(playerID), true
}
