package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeRoomNotFound      = 2001
	ErrCodeRoomFull          = 2002
	ErrCodeNotInRoom         = 2003
	ErrCodeGameStarted       = 2004 // 游戏已开始
	ErrCodeNotEnoughPlayers  = 2005 // 人数不足
	ErrCodeGameNotActive     = 3001
	ErrCodeNotYourTurn       = 3002
	ErrCodeCardNotHeld       = 3003
	ErrCodeMustFollowSuit    = 3004
	ErrCodeNotSeated         = 3005
	ErrCodeStatsUnavailable  = 5001 // 未启用 Redis 或读取失败
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomFull:          "房间已满",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeGameStarted:       "游戏已开始",
	ErrCodeNotEnoughPlayers:  "需要 4 名玩家才能开始",
	ErrCodeGameNotActive:     "游戏未在进行中",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeCardNotHeld:       "这张牌不在您的手中",
	ErrCodeMustFollowSuit:    "必须跟出首牌花色",
	ErrCodeNotSeated:         "您不在本局游戏中",
	ErrCodeStatsUnavailable:  "统计服务暂不可用",
	ErrCodeServerMaintenance: "服务器维护中",
}
