//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/catch-the-ten/internal/types"
)

// MockServer 实现 types.ServerInterface 的 mock
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockServer) GetClientByID(id string) types.ClientInterface {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(types.ClientInterface)
}

func (m *MockServer) RegisterClient(id string, client types.ClientInterface) {
	m.Called(id, client)
}

func (m *MockServer) UnregisterClient(id string) {
	m.Called(id)
}

// SimpleServer 用 map 保存客户端的服务器实现
type SimpleServer struct {
	Maintenance bool

	clients map[string]types.ClientInterface
	mu      sync.RWMutex
}

// NewSimpleServer 创建 SimpleServer
func NewSimpleServer() *SimpleServer {
	return &SimpleServer{clients: make(map[string]types.ClientInterface)}
}

func (s *SimpleServer) IsMaintenanceMode() bool { return s.Maintenance }

func (s *SimpleServer) GetOnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *SimpleServer) GetClientByID(id string) types.ClientInterface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[id]; ok {
		return c
	}
	return nil
}

func (s *SimpleServer) RegisterClient(id string, client types.ClientInterface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[id] = client
}

func (s *SimpleServer) UnregisterClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}
