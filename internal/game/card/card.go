package card

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Suit 定义花色
type Suit string

// Rank 定义点数，数值即为大小顺序
type Rank int

const (
	NoSuit   Suit = ""
	Hearts   Suit = "HEARTS"   // 红心
	Diamonds Suit = "DIAMONDS" // 方块
	Clubs    Suit = "CLUBS"    // 梅花
	Spades   Suit = "SPADES"   // 黑桃
)

// Suits 按建牌顺序排列的花色
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

const (
	Rank2 Rank = iota + 2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ // Jack
	RankQ // Queen
	RankK // King
	RankA // Ace
)

// DeckSize 一副牌的张数
const DeckSize = 52

// rankNames 牌面值字符串映射表
var rankNames = map[Rank]string{
	Rank2:  "2",
	Rank3:  "3",
	Rank4:  "4",
	Rank5:  "5",
	Rank6:  "6",
	Rank7:  "7",
	Rank8:  "8",
	Rank9:  "9",
	Rank10: "10",
	RankJ:  "J",
	RankQ:  "Q",
	RankK:  "K",
	RankA:  "A",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return strconv.Itoa(int(r))
}

// RankOrder 返回点数的大小顺序（2 最小，A 最大）
func RankOrder(r Rank) int {
	return int(r)
}

// ParseRank 解析牌面值字符串
func ParseRank(s string) (Rank, error) {
	for r, name := range rankNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("无法识别的点数: %q", s)
}

// ParseSuit 解析花色字符串
func ParseSuit(s string) (Suit, error) {
	for _, suit := range Suits {
		if string(suit) == s {
			return suit, nil
		}
	}
	return NoSuit, fmt.Errorf("无法识别的花色: %q", s)
}

// Card 定义一张牌，ID 是出牌时的寻址键
type Card struct {
	ID   string
	Suit Suit
	Rank Rank
}

func (c Card) String() string {
	return string(c.Suit) + "-" + c.Rank.String()
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 按花色、点数顺序生成 52 张牌
func NewDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	n := 0
	for _, s := range Suits {
		for r := Rank2; r <= RankA; r++ {
			deck = append(deck, Card{
				ID:   fmt.Sprintf("%s-%s-%d", s, r, n),
				Suit: s,
				Rank: r,
			})
			n++
		}
	}
	return deck
}

// NewShuffledDeck 生成一副洗好的牌，r 为 nil 时使用全局随机源
func NewShuffledDeck(r *rand.Rand) Deck {
	deck := NewDeck()
	deck.Shuffle(r)
	return deck
}

// Shuffle 原地洗牌（Fisher–Yates）
func (d Deck) Shuffle(r *rand.Rand) {
	swap := func(i, j int) {
		d[i], d[j] = d[j], d[i]
	}
	if r == nil {
		rand.Shuffle(len(d), swap)
		return
	}
	r.Shuffle(len(d), swap)
}

// CompareForTrick 比较两张牌在一墩中的大小，返回较大的一张。
// 主牌压其他花色，首牌花色压副牌；两张都不是主牌或首牌花色时 a 保持领先。
func CompareForTrick(a, b Card, baseSuit, trumpSuit Suit) Card {
	if trumpSuit != NoSuit {
		aTrump, bTrump := a.Suit == trumpSuit, b.Suit == trumpSuit
		switch {
		case aTrump && !bTrump:
			return a
		case bTrump && !aTrump:
			return b
		case aTrump && bTrump:
			return higher(a, b)
		}
	}

	aBase, bBase := a.Suit == baseSuit, b.Suit == baseSuit
	switch {
	case aBase && bBase:
		return higher(a, b)
	case bBase:
		return b
	default:
		return a
	}
}

func higher(a, b Card) Card {
	if RankOrder(b.Rank) > RankOrder(a.Rank) {
		return b
	}
	return a
}
