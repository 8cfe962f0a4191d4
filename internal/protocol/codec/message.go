package codec

import (
	"encoding/json"
	"fmt"

	"github.com/palemoky/catch-the-ten/internal/protocol"
)

// NewMessage 构造消息，payload 为 nil 时不带负载
func NewMessage(t protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := &protocol.Message{Type: t}
	if payload == nil {
		return msg, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化 %s 负载失败: %w", t, err)
	}
	msg.Payload = data
	return msg, nil
}

// MustNewMessage 构造消息，序列化失败时 panic，只用于结构固定的负载
func MustNewMessage(t protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(t, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// NewErrorMessage 使用错误码默认文案构造 error 消息
func NewErrorMessage(code int) *protocol.Message {
	msg, ok := protocol.ErrorMessages[code]
	if !ok {
		msg = protocol.ErrorMessages[protocol.ErrCodeUnknown]
	}
	return NewErrorMessageWithText(code, msg)
}

// NewErrorMessageWithText 使用自定义文案构造 error 消息
func NewErrorMessageWithText(code int, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
}

// ParsePayload 解析消息负载
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if msg == nil {
		return nil, fmt.Errorf("消息为空")
	}
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("解析 %s 负载失败: %w", msg.Type, err)
	}
	return &payload, nil
}
