package types

import (
	"github.com/palemoky/catch-the-ten/internal/protocol"
)

// ServerInterface 定义服务器接口（用于打破循环依赖）
type ServerInterface interface {
	IsMaintenanceMode() bool
	GetOnlineCount() int
	GetClientByID(id string) ClientInterface
	RegisterClient(id string, client ClientInterface)
	UnregisterClient(id string)
}

// ClientInterface 定义客户端接口
//
// 一个连接可以同时加入多个房间，断开时需要逐个离开。
type ClientInterface interface {
	GetID() string
	GetName() string
	SetName(name string)
	Rooms() []string
	JoinRoom(roomID string)
	LeaveRoom(roomID string)
	SendMessage(msg *protocol.Message)
	Close()
}

// MessageLimiter 单连接消息速率限制器接口
type MessageLimiter interface {
	Allow(clientID string) bool
	RemoveClient(clientID string)
}
