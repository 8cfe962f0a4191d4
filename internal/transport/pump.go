package transport

import (
	"time"

	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/logger"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
)

// readPump 从服务器读取消息
func (c *Client) readPump() {
	defer c.handleReadExit()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				klog.V(1).Infof("读取错误: %v", err)
			}
			return
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			klog.Warningf("消息解析错误: %v", err)
			continue
		}

		c.processMessage(msg)
	}
}

func (c *Client) handleReadExit() {
	if r := recover(); r != nil {
		logger.LogPanic(r)
	}
	c.Close()
	if c.onClose != nil {
		c.onClose()
	}
}

func (c *Client) processMessage(msg *protocol.Message) {
	if msg.Type == protocol.MsgPong {
		if payload, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
			c.latency.Store(time.Now().UnixMilli() - payload.ClientTimestamp)
		}
	}

	if c.onMessage != nil {
		c.onMessage(msg)
	}

	select {
	case c.receive <- msg:
	default:
		klog.Warningf("接收缓冲区已满，丢弃消息: %s", msg.Type)
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
