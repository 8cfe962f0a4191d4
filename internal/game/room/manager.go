package room

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/apperrors"
	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/server/storage"
)

const (
	storeTimeout = 3 * time.Second
	mirrorQueue  = 256 // 镜像写入队列长度
)

// Store 房间快照与对局结果的外部镜像，不参与状态恢复
type Store interface {
	SaveRoom(ctx context.Context, roomID string, data *storage.RoomData) error
	DeleteRoom(ctx context.Context, roomID string) error
	RecordResult(ctx context.Context, result *storage.ResultData) error
}

// RoomManager 房间管理器
//
// mu 只保护 rooms 映射本身，房间内的修改由 Room.mu 串行化，两把锁从不嵌套持有。
type RoomManager struct {
	store    Store
	jobs     chan mirrorJob
	drained  chan struct{} // mirrorLoop 退出时关闭
	jobsMu   sync.RWMutex  // 保护 jobs 的发送与关闭
	stopped  bool
	gameOpts []game.Option
	rooms    map[string]*Room
	mu       sync.RWMutex
}

// NewRoomManager 创建房间管理器，store 可为 nil
func NewRoomManager(store Store, gameOpts ...game.Option) *RoomManager {
	rm := &RoomManager{
		store:    store,
		gameOpts: gameOpts,
		rooms:    make(map[string]*Room),
	}

	if store != nil {
		rm.jobs = make(chan mirrorJob, mirrorQueue)
		rm.drained = make(chan struct{})
		// 单个写入协程，保证同一房间的快照按修改顺序落盘
		go rm.mirrorLoop()
	}

	return rm
}

// CreateOrGetRoom 获取房间，不存在时创建
func (rm *RoomManager) CreateOrGetRoom(roomID string) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if room, ok := rm.rooms[roomID]; ok {
		return room
	}
	room := newRoom(roomID, rm.gameOpts)
	rm.rooms[roomID] = room
	klog.Infof("🏠 房间 %s 已创建", roomID)
	return room
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(roomID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[roomID]
}

// Snapshot 一次修改的结果，视图与修改在同一把房间锁内生成
type Snapshot struct {
	Room    *Room
	Seat    int              // AddPlayer：成员座位
	Play    *game.PlayResult // PlayCard：出牌结果
	Removed *RemoveResult    // RemovePlayer：离开结果
	Views   []Viewer
}

// Notifier 在房间锁释放后按修改顺序调用，用于下发消息
type Notifier func(Snapshot)

// commit 生成快照并在持有通知锁的情况下释放房间锁，调用方需持有 room.mu
func (rm *RoomManager) commit(room *Room, snap Snapshot, notify Notifier) Snapshot {
	snap.Room = room
	snap.Views = room.views()

	room.notifyMu.Lock()
	room.mu.Unlock()
	defer room.notifyMu.Unlock()

	if notify != nil {
		notify(snap)
	}
	return snap
}

// AddPlayer 加入房间（不存在则创建），重复加入只刷新昵称
func (rm *RoomManager) AddPlayer(roomID, playerID, name string, notify Notifier) (Snapshot, error) {
	if name == "" {
		name = DefaultName(playerID)
	}

	for {
		room := rm.CreateOrGetRoom(roomID)

		room.mu.Lock()
		if room.closed {
			// 与最后一位成员离开竞争，重新获取
			room.mu.Unlock()
			continue
		}
		seat, err := room.add(playerID, name)
		if err != nil {
			room.mu.Unlock()
			return Snapshot{Room: room}, err
		}

		rm.saveRoom(room)
		klog.Infof("👤 玩家 %s 加入房间 %s (座位 %d)", name, roomID, seat)
		return rm.commit(room, Snapshot{Seat: seat}, notify), nil
	}
}

// StartGame 开局
func (rm *RoomManager) StartGame(roomID string, notify Notifier) (Snapshot, error) {
	room := rm.GetRoom(roomID)
	if room == nil {
		return Snapshot{}, apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	if err := room.start(); err != nil {
		room.mu.Unlock()
		return Snapshot{Room: room}, err
	}

	rm.saveRoom(room)
	klog.Infof("🎮 房间 %s 开局", roomID)
	return rm.commit(room, Snapshot{}, notify), nil
}

// PlayCard 出牌
func (rm *RoomManager) PlayCard(roomID, playerID, cardID string, notify Notifier) (Snapshot, error) {
	room := rm.GetRoom(roomID)
	if room == nil {
		return Snapshot{}, apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	res, err := room.play(playerID, cardID)
	if err != nil {
		room.mu.Unlock()
		return Snapshot{Room: room}, err
	}

	rm.saveRoom(room)
	if res.Outcome != nil {
		rm.recordResult(room, res.Outcome)
		klog.Infof("🏁 房间 %s 对局结束: %s", roomID, res.Outcome.Message)
	}
	return rm.commit(room, Snapshot{Play: res}, notify), nil
}

// GetRoomList 获取可加入的房间列表
func (rm *RoomManager) GetRoomList() []protocol.RoomListItem {
	rooms := make([]protocol.RoomListItem, 0)
	for _, room := range rm.snapshot() {
		room.mu.Lock()
		// 只返回大厅阶段且未满的房间
		if !room.closed && room.phase() == game.PhaseLobby && len(room.members) < game.NumSeats {
			rooms = append(rooms, protocol.RoomListItem{
				RoomID:      room.ID,
				PlayerCount: len(room.members),
				MaxPlayers:  game.NumSeats,
			})
		}
		room.mu.Unlock()
	}
	slices.SortFunc(rooms, func(a, b protocol.RoomListItem) int {
		return strings.Compare(a.RoomID, b.RoomID)
	})
	return rooms
}

// GetActiveGamesCount 获取进行中的游戏数量
func (rm *RoomManager) GetActiveGamesCount() int {
	count := 0
	for _, room := range rm.snapshot() {
		room.mu.Lock()
		if room.game != nil && room.game.IsActive() {
			count++
		}
		room.mu.Unlock()
	}
	return count
}

// RoomCount 房间数量
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// snapshot 复制房间指针，避免持有 rm.mu 时加房间锁
func (rm *RoomManager) snapshot() []*Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
