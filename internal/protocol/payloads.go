package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// StartGamePayload 开始游戏请求
type StartGamePayload struct {
	RoomID string `json:"roomId"`
}

// PlayCardPayload 出牌请求
type PlayCardPayload struct {
	RoomID string `json:"roomId"`
	CardID string `json:"cardId"`
}

// LeaveRoomPayload 离开房间请求
type LeaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

// GetLeaderboardPayload 排行榜请求
type GetLeaderboardPayload struct {
	Limit int `json:"limit"` // 默认 10，最多 50
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"clientTimestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"serverTimestamp"` // 服务器时间戳（毫秒）
}

// JoinSuccessPayload 加入房间成功响应
type JoinSuccessPayload struct {
	RoomID string `json:"roomId"`
	Seat   int    `json:"seat"`
}

// JoinErrorPayload 加入房间失败响应
type JoinErrorPayload struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

// InvalidMovePayload 非法操作响应
type InvalidMovePayload struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

// TrumpDecidedPayload 主牌确定通知
type TrumpDecidedPayload struct {
	TrumpSuit string `json:"trumpSuit"`
}

// TrickResultPayload 一墩结算通知
type TrickResultPayload struct {
	WinnerSeat   int    `json:"winnerSeat"`
	TensCaptured int    `json:"tensCaptured"`
	Message      string `json:"message"`
}

// GameOverPayload 游戏结束通知
type GameOverPayload struct {
	Result string     `json:"result"`           // 描述性结果
	Reason string     `json:"reason"`           // tens/tricks/draw/aborted
	Winner string     `json:"winner,omitempty"` // A/B，平局或中止时为空
	Scores ScoresInfo `json:"scores"`
}

// GameStatePayload 按观察者裁剪后的游戏状态
type GameStatePayload struct {
	RoomID          string          `json:"roomId"`
	Phase           string          `json:"phase"`
	BaseSuit        string          `json:"baseSuit,omitempty"`
	TrumpSuit       string          `json:"trumpSuit,omitempty"`
	CurrentTurnSeat int             `json:"currentTurnSeat"`
	Players         []PlayerInfo    `json:"players"`
	TableCards      []TableCardInfo `json:"tableCards"`
	Scores          ScoresInfo      `json:"scores"`
	DrawPileCount   int             `json:"drawPileCount"`
	YourSeat        *int            `json:"yourSeat"` // 观察者未入座时为 null
	Outcome         *OutcomeInfo    `json:"outcome,omitempty"`
}

// RoomListPayload 房间列表结果
type RoomListPayload struct {
	Rooms []RoomListItem `json:"rooms"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomID      string `json:"roomId"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

// StatsResultPayload 个人统计结果
type StatsResultPayload struct {
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Games    int64   `json:"games"`
	Wins     int64   `json:"wins"`
	Tens     int64   `json:"tens"`
	WinRate  float64 `json:"winRate"` // 百分比
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
	Wins int64  `json:"wins"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 通用数据结构 ---

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Seat       int        `json:"seat"` // 座位号 0-3
	Team       string     `json:"team"` // A/B
	Hand       []CardInfo `json:"hand,omitzero"` // 只有观察者本人有，手牌打完时为 []
	CardsCount int        `json:"cardsCount"`
}

// CardInfo 牌信息
type CardInfo struct {
	ID   string `json:"id"`
	Suit string `json:"suit"` // HEARTS/DIAMONDS/CLUBS/SPADES
	Rank string `json:"rank"` // 2-10/J/Q/K/A
}

// TableCardInfo 桌面上的一张牌
type TableCardInfo struct {
	Seat int      `json:"seat"`
	Card CardInfo `json:"card"`
}

// TeamScoreInfo 单队得分
type TeamScoreInfo struct {
	Tens   int `json:"tens"`
	Tricks int `json:"tricks"`
}

// ScoresInfo 双方得分
type ScoresInfo struct {
	TeamA TeamScoreInfo `json:"teamA"`
	TeamB TeamScoreInfo `json:"teamB"`
}

// OutcomeInfo 结局
type OutcomeInfo struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
	Winner string `json:"winner,omitempty"`
}
