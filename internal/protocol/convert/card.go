package convert

import (
	"fmt"

	"github.com/palemoky/catch-the-ten/internal/game/card"
	"github.com/palemoky/catch-the-ten/internal/protocol"
)

// CardToInfo 将 card.Card 转换为 protocol.CardInfo
func CardToInfo(c card.Card) protocol.CardInfo {
	return protocol.CardInfo{
		ID:   c.ID,
		Suit: string(c.Suit),
		Rank: c.Rank.String(),
	}
}

// CardsToInfos 将 []card.Card 转换为 []protocol.CardInfo
func CardsToInfos(cards []card.Card) []protocol.CardInfo {
	if cards == nil {
		return nil
	}
	infos := make([]protocol.CardInfo, len(cards))
	for i, c := range cards {
		infos[i] = CardToInfo(c)
	}
	return infos
}

// InfoToCard 将 protocol.CardInfo 转换为 card.Card
func InfoToCard(info protocol.CardInfo) (card.Card, error) {
	suit, err := card.ParseSuit(info.Suit)
	if err != nil {
		return card.Card{}, fmt.Errorf("牌 %s: %w", info.ID, err)
	}
	rank, err := card.ParseRank(info.Rank)
	if err != nil {
		return card.Card{}, fmt.Errorf("牌 %s: %w", info.ID, err)
	}
	return card.Card{ID: info.ID, Suit: suit, Rank: rank}, nil
}

// InfosToCards 将 []protocol.CardInfo 转换为 []card.Card
func InfosToCards(infos []protocol.CardInfo) ([]card.Card, error) {
	cards := make([]card.Card, len(infos))
	for i, info := range infos {
		c, err := InfoToCard(info)
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}
	return cards, nil
}
