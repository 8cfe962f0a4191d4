//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/catch-the-ten/internal/server/storage"
)

// MockStore 房间镜像 mock，实现 room.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveRoom(ctx context.Context, roomID string, data *storage.RoomData) error {
	args := m.Called(ctx, roomID, data)
	return args.Error(0)
}

func (m *MockStore) DeleteRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *MockStore) RecordResult(ctx context.Context, result *storage.ResultData) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// MockMessageLimiter 消息限流 mock
type MockMessageLimiter struct {
	mock.Mock
}

func (m *MockMessageLimiter) Allow(clientID string) bool {
	args := m.Called(clientID)
	return args.Bool(0)
}

func (m *MockMessageLimiter) RemoveClient(clientID string) {
	m.Called(clientID)
}

// MockStatsStore 统计查询 mock
type MockStatsStore struct {
	mock.Mock
}

func (m *MockStatsStore) GetPlayerStats(ctx context.Context, name string) (*storage.PlayerStats, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PlayerStats), args.Error(1)
}

func (m *MockStatsStore) TopWinners(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.LeaderboardEntry), args.Error(1)
}
