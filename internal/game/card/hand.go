package card

// Hand 玩家手牌，保持发牌顺序
type Hand []Card

// Find 按 ID 查找手牌
func (h Hand) Find(id string) (Card, bool) {
	for _, c := range h {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// Remove 按 ID 移除一张牌，返回新的手牌
func (h Hand) Remove(id string) Hand {
	for i, c := range h {
		if c.ID == id {
			out := make(Hand, 0, len(h)-1)
			out = append(out, h[:i]...)
			return append(out, h[i+1:]...)
		}
	}
	return h
}

// HasSuit 是否持有该花色
func (h Hand) HasSuit(s Suit) bool {
	for _, c := range h {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// CountRank 统计某点数的张数
func CountRank(cards []Card, r Rank) int {
	n := 0
	for _, c := range cards {
		if c.Rank == r {
			n++
		}
	}
	return n
}

// Clone 复制手牌，避免外部修改内部状态
func (h Hand) Clone() Hand {
	if h == nil {
		return nil
	}
	out := make(Hand, len(h))
	copy(out, h)
	return out
}
