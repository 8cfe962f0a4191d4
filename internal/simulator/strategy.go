package simulator

import (
	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/game/card"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/convert"
)

// ChooseCard 选择要打出的牌：有首牌花色时出该花色最小的牌，否则出手中最小的牌
func ChooseCard(hand []protocol.CardInfo, baseSuit string) (protocol.CardInfo, bool) {
	if len(hand) == 0 {
		return protocol.CardInfo{}, false
	}

	cards, err := convert.InfosToCards(hand)
	if err != nil {
		// 无法识别的牌交给服务器判定
		klog.Warningf("⚠️ 手牌解析失败: %v", err)
		return hand[0], true
	}

	follow := card.Suit(baseSuit)
	mustFollow := follow != card.NoSuit && card.Hand(cards).HasSuit(follow)

	best := -1
	for i, c := range cards {
		if mustFollow && c.Suit != follow {
			continue
		}
		if best < 0 || card.RankOrder(c.Rank) < card.RankOrder(cards[best].Rank) {
			best = i
		}
	}
	return hand[best], true
}
