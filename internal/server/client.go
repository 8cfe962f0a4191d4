package server

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/logger"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔，必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 超限次数达到后断开连接
	maxRateWarnings = 5
)

// Client 一个 WebSocket 连接，实现 types.ClientInterface
//
// 连接的 ID 即玩家身份，可以同时加入多个房间。
type Client struct {
	ID string
	IP string

	server *Server
	conn   *websocket.Conn
	send   chan []byte

	name   string
	rooms  []string
	closed bool
	mu     sync.RWMutex
}

// NewClient 创建客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.New().String(),
		server: s,
		conn:   conn,
		send:   make(chan []byte, s.config.Server.SendBuffer),
	}
}

// GetID 玩家 ID
func (c *Client) GetID() string { return c.ID }

// GetName 最近一次加入房间时使用的昵称
func (c *Client) GetName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName 设置昵称
func (c *Client) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Rooms 已加入的房间
func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.rooms)
}

// JoinRoom 记录加入的房间
func (c *Client) JoinRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.rooms, roomID) {
		c.rooms = append(c.rooms, roomID)
	}
}

// LeaveRoom 移除房间记录
func (c *Client) LeaveRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = slices.DeleteFunc(c.rooms, func(id string) bool { return id == roomID })
}

// ReadPump 从 WebSocket 读取消息并交给处理器
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				klog.Warningf("读取错误 (%s): %v", c.ID, err)
			}
			return
		}

		msg, err := c.server.codec.Decode(data)
		if err != nil {
			klog.V(1).Infof("消息解析错误 (%s): %v", c.ID, err)
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
		codec.ReleaseMessage(msg)

		if c.server.messageLimiter.WarningCount(c.ID) > maxRateWarnings {
			ban := c.server.config.Security.RateLimit.BanDurationTime()
			c.server.ipFilter.BlockFor(c.IP, ban)
			klog.Warningf("🚫 客户端 %s (IP: %s) 因多次超速被断开连接，封禁 %v", c.ID, c.IP, ban)
			return
		}
	}
}

// WritePump 向 WebSocket 写入消息并定期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.server.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息，发送缓冲区满时关闭连接而不是阻塞
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := c.server.codec.Encode(msg)
	if err != nil {
		klog.Errorf("消息编码错误: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		klog.Warningf("客户端 %s 发送缓冲区已满，断开连接", c.ID)
		c.closeLocked()
	}
}

// Close 关闭发送通道，WritePump 随后关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// handleDisconnect 注销连接并离开所有房间
func (c *Client) handleDisconnect() {
	c.server.unregisterClient(c)
	c.server.handler.HandleDisconnect(c)
	c.Close()
}
