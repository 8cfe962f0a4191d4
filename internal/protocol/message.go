package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgJoinRoom    MessageType = "join_room"     // 加入房间（不存在则创建）
	MsgLeaveRoom   MessageType = "leave_room"    // 离开房间
	MsgStartGame   MessageType = "start_game"    // 开始游戏
	MsgGetRoomList MessageType = "get_room_list" // 获取房间列表

	// 信息查询
	MsgGetStats       MessageType = "get_stats"       // 个人统计
	MsgGetLeaderboard MessageType = "get_leaderboard" // 胜场排行榜

	// 游戏操作
	MsgPlayCard MessageType = "play_card" // 出牌
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgJoinSuccess MessageType = "join_success" // 加入房间成功
	MsgJoinError   MessageType = "join_error"   // 加入房间失败
	MsgRoomList    MessageType = "room_list"    // 房间列表结果

	// 查询结果
	MsgStatsResult       MessageType = "stats_result"
	MsgLeaderboardResult MessageType = "leaderboard_result"

	// 游戏流程
	MsgGameState    MessageType = "game_state"    // 按玩家视角裁剪的游戏状态
	MsgInvalidMove  MessageType = "invalid_move"  // 非法操作（只发给操作者）
	MsgTrumpDecided MessageType = "trump_decided" // 主牌花色已确定
	MsgTrickResult  MessageType = "trick_result"  // 一墩结算结果
	MsgGameOver     MessageType = "game_over"     // 游戏结束

	// 错误
	MsgError MessageType = "error" // 错误消息
)
