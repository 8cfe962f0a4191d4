//go:build !production

package testutil

import (
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/catch-the-ten/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetName(name string) {
	m.Called(name)
}

func (m *MockClient) Rooms() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockClient) JoinRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockClient) LeaveRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 简单的 mock 客户端，记录收到的消息（用于不需要断言调用的测试）
type SimpleClient struct {
	ID       string
	Name     string
	RoomIDs  []string
	Messages []*protocol.Message
	Closed   bool

	mu sync.Mutex
}

func (m *SimpleClient) GetID() string { return m.ID }

func (m *SimpleClient) GetName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Name
}

func (m *SimpleClient) SetName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Name = name
}

func (m *SimpleClient) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.RoomIDs)
}

func (m *SimpleClient) JoinRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.RoomIDs, roomID) {
		m.RoomIDs = append(m.RoomIDs, roomID)
	}
}

func (m *SimpleClient) LeaveRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RoomIDs = slices.DeleteFunc(m.RoomIDs, func(id string) bool { return id == roomID })
}

func (m *SimpleClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
}

func (m *SimpleClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}

// Received 已收到的消息快照
func (m *SimpleClient) Received() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.Messages)
}

// OfType 按类型过滤已收到的消息
func (m *SimpleClient) OfType(t protocol.MessageType) []*protocol.Message {
	var out []*protocol.Message
	for _, msg := range m.Received() {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

// Last 最后一条指定类型的消息，没有时返回 nil
func (m *SimpleClient) Last(t protocol.MessageType) *protocol.Message {
	msgs := m.OfType(t)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// Reset 清空已收到的消息
func (m *SimpleClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = nil
}
