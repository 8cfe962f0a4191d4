// Package transport 游戏服务器的 WebSocket 客户端，供模拟器和端到端测试使用
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	bufferSize = 256
)

var (
	// ErrClosed 连接已关闭
	ErrClosed = errors.New("连接已关闭")
	// ErrSendBufferFull 发送缓冲区已满
	ErrSendBufferFull = errors.New("发送缓冲区已满")
)

// Client WebSocket 客户端
type Client struct {
	conn    *websocket.Conn
	codec   codec.Codec
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	playerID string
	latency  atomic.Int64 // 毫秒

	// 每条消息进入 receive 前回调
	onMessage func(*protocol.Message)
	onClose   func()

	mu     sync.RWMutex
	closed bool
}

// Option 客户端选项
type Option func(*Client)

// WithOnMessage 设置消息回调
func WithOnMessage(fn func(*protocol.Message)) Option {
	return func(c *Client) { c.onMessage = fn }
}

// WithOnClose 设置连接关闭回调
func WithOnClose(fn func()) Option {
	return func(c *Client) { c.onClose = fn }
}

// Dial 连接服务器并等待 connected 消息，msgCodec 需与服务器的编码一致
func Dial(ctx context.Context, url string, msgCodec codec.Codec, opts ...Option) (*Client, error) {
	if msgCodec == nil {
		msgCodec = codec.JSON
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("连接 %s 失败 (HTTP %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("连接 %s 失败: %w", url, err)
	}

	c := &Client{
		conn:    conn,
		codec:   msgCodec,
		send:    make(chan []byte, bufferSize),
		receive: make(chan *protocol.Message, bufferSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	// 服务器的第一条消息总是 connected
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("等待 connected 消息失败: %w", err)
	}
	msg, err := msgCodec.Decode(data)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("解析 connected 消息失败: %w", err)
	}
	if msg.Type != protocol.MsgConnected {
		_ = conn.Close()
		return nil, fmt.Errorf("期望 connected 消息，收到 %s", msg.Type)
	}
	payload, err := codec.ParsePayload[protocol.ConnectedPayload](msg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.playerID = payload.PlayerID

	go c.readPump()
	go c.writePump()

	return c, nil
}

// PlayerID 服务器分配的玩家 ID
func (c *Client) PlayerID() string { return c.playerID }

// Latency 最近一次 ping 的往返延迟（毫秒）
func (c *Client) Latency() int64 { return c.latency.Load() }

// Receive 消息通道，连接关闭后不再写入
func (c *Client) Receive() <-chan *protocol.Message { return c.receive }

// Done 连接关闭时关闭
func (c *Client) Done() <-chan struct{} { return c.done }

// Send 发送消息
func (c *Client) Send(msg *protocol.Message) error {
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// WaitFor 阻塞直到收到指定类型的消息，其余消息被丢弃
func (c *Client) WaitFor(ctx context.Context, types ...protocol.MessageType) (*protocol.Message, error) {
	for {
		select {
		case msg := <-c.receive:
			for _, t := range types {
				if msg.Type == t {
					return msg, nil
				}
			}
		case <-c.done:
			return nil, ErrClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close 关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		_ = c.conn.Close()
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// --- 便捷方法 ---

// JoinRoom 加入房间，房间不存在时由服务器创建
func (c *Client) JoinRoom(roomID, name string) error {
	return c.Send(codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomID: roomID,
		Name:   name,
	}))
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom(roomID string) error {
	return c.Send(codec.MustNewMessage(protocol.MsgLeaveRoom, protocol.LeaveRoomPayload{RoomID: roomID}))
}

// StartGame 开始游戏
func (c *Client) StartGame(roomID string) error {
	return c.Send(codec.MustNewMessage(protocol.MsgStartGame, protocol.StartGamePayload{RoomID: roomID}))
}

// PlayCard 出牌
func (c *Client) PlayCard(roomID, cardID string) error {
	return c.Send(codec.MustNewMessage(protocol.MsgPlayCard, protocol.PlayCardPayload{
		RoomID: roomID,
		CardID: cardID,
	}))
}

// GetRoomList 获取房间列表
func (c *Client) GetRoomList() error {
	return c.Send(codec.MustNewMessage(protocol.MsgGetRoomList, nil))
}

// GetStats 获取个人统计
func (c *Client) GetStats() error {
	return c.Send(codec.MustNewMessage(protocol.MsgGetStats, nil))
}

// GetLeaderboard 获取排行榜
func (c *Client) GetLeaderboard(limit int) error {
	return c.Send(codec.MustNewMessage(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: limit}))
}

// Ping 发送心跳，pong 到达后更新延迟
func (c *Client) Ping() error {
	return c.Send(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}
