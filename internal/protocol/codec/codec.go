package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/catch-the-ten/internal/protocol"
)

// ErrEmptyType 消息缺少 type 字段
var ErrEmptyType = errors.New("消息类型为空")

// Codec 消息编解码器
type Codec interface {
	Name() string
	Encode(msg *protocol.Message) ([]byte, error)
	Decode(data []byte) (*protocol.Message, error)
	// Binary 为 true 时使用二进制帧发送
	Binary() bool
}

// ForName 按配置名称选择编解码器
func ForName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "protobuf":
		return Protobuf, nil
	}
	return nil, fmt.Errorf("不支持的消息编码: %s", name)
}

var (
	// JSON 文本帧，{"type": ..., "payload": {...}}
	JSON Codec = jsonCodec{}
	// Protobuf 二进制帧，信封为 structpb.Struct
	Protobuf Codec = protoCodec{}
)

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(msg *protocol.Message) ([]byte, error) {
	buf := buffers.get()
	defer buffers.put(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("编码消息失败: %w", err)
	}
	// json.Encoder 会追加换行
	return bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func (jsonCodec) Decode(data []byte) (*protocol.Message, error) {
	msg := messages.get()
	if err := json.Unmarshal(data, msg); err != nil {
		messages.put(msg)
		return nil, fmt.Errorf("解码消息失败: %w", err)
	}
	if msg.Type == "" {
		messages.put(msg)
		return nil, ErrEmptyType
	}
	return msg, nil
}

type protoCodec struct{}

func (protoCodec) Name() string { return "protobuf" }
func (protoCodec) Binary() bool { return true }

func (protoCodec) Encode(msg *protocol.Message) ([]byte, error) {
	fields := map[string]*structpb.Value{
		"type": structpb.NewStringValue(string(msg.Type)),
	}

	if len(msg.Payload) > 0 {
		var payload any
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("解析负载失败: %w", err)
		}
		v, err := structpb.NewValue(payload)
		if err != nil {
			return nil, fmt.Errorf("转换负载失败: %w", err)
		}
		fields["payload"] = v
	}

	data, err := proto.Marshal(&structpb.Struct{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("编码消息失败: %w", err)
	}
	return data, nil
}

func (protoCodec) Decode(data []byte) (*protocol.Message, error) {
	var envelope structpb.Struct
	if err := proto.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("解码消息失败: %w", err)
	}

	t := envelope.GetFields()["type"].GetStringValue()
	if t == "" {
		return nil, ErrEmptyType
	}

	msg := messages.get()
	msg.Type = protocol.MessageType(t)
	if v, ok := envelope.GetFields()["payload"]; ok {
		payload, err := json.Marshal(v.AsInterface())
		if err != nil {
			messages.put(msg)
			return nil, fmt.Errorf("转换负载失败: %w", err)
		}
		msg.Payload = payload
	}
	return msg, nil
}
