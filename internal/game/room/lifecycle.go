package room

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/apperrors"
	"github.com/palemoky/catch-the-ten/internal/game"
)

// RemoveResult 成员离开的结果
type RemoveResult struct {
	Member      Member        // 离开的成员
	Aborted     *game.Outcome // 对局因此中止时非空
	RoomDeleted bool          // 房间已空并被删除
}

// RemovePlayer 移除成员；进行中的对局会被中止，房间为空时删除房间
func (rm *RoomManager) RemovePlayer(roomID, playerID string, notify Notifier) (Snapshot, error) {
	room := rm.GetRoom(roomID)
	if room == nil {
		return Snapshot{}, apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	member, aborted, ok := room.remove(playerID)
	if !ok {
		room.mu.Unlock()
		return Snapshot{Room: room}, apperrors.ErrNotInRoom
	}

	res := &RemoveResult{Member: member, Aborted: aborted}
	klog.Infof("👋 玩家 %s 离开房间 %s", member.Name, roomID)
	if aborted != nil {
		rm.recordResult(room, aborted)
		klog.Infof("⛔ 房间 %s 对局中止: %s", roomID, aborted.Message)
	}

	if len(room.members) > 0 {
		rm.saveRoom(room)
		return rm.commit(room, Snapshot{Removed: res}, notify), nil
	}

	room.closed = true
	res.RoomDeleted = true
	rm.enqueue(mirrorJob{name: "删除房间 " + roomID, run: func(ctx context.Context) error {
		return rm.store.DeleteRoom(ctx, roomID)
	}})
	room.mu.Unlock()

	rm.mu.Lock()
	// 映射中可能已是同名的新房间
	if rm.rooms[roomID] == room {
		delete(rm.rooms, roomID)
	}
	rm.mu.Unlock()
	klog.Infof("🏠 房间 %s 已解散", roomID)

	return Snapshot{Room: room, Removed: res}, nil
}

// mirrorJob 一次镜像写入
type mirrorJob struct {
	name string
	run  func(ctx context.Context) error
}

func (rm *RoomManager) mirrorLoop() {
	defer close(rm.drained)
	for job := range rm.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := job.run(ctx); err != nil {
			klog.Warningf("%s 失败: %v", job.name, err)
		}
		cancel()
	}
}

// enqueue 不阻塞地提交写入，队列满或已关闭时丢弃
func (rm *RoomManager) enqueue(job mirrorJob) {
	if rm.store == nil {
		return
	}

	rm.jobsMu.RLock()
	defer rm.jobsMu.RUnlock()
	if rm.stopped {
		klog.V(2).Infof("镜像已关闭，丢弃: %s", job.name)
		return
	}
	select {
	case rm.jobs <- job:
	default:
		klog.Warningf("镜像队列已满，丢弃: %s", job.name)
	}
}

// saveRoom 提交房间快照，调用方需持有 room.mu
func (rm *RoomManager) saveRoom(room *Room) {
	if rm.store == nil {
		return
	}
	data := room.toRoomData()
	rm.enqueue(mirrorJob{name: "保存房间 " + room.ID, run: func(ctx context.Context) error {
		return rm.store.SaveRoom(ctx, data.ID, data)
	}})
}

// recordResult 提交对局结果，调用方需持有 room.mu
func (rm *RoomManager) recordResult(room *Room, o *game.Outcome) {
	if rm.store == nil {
		return
	}
	result := room.toResultData(o)
	rm.enqueue(mirrorJob{name: "记录对局结果 " + room.ID, run: func(ctx context.Context) error {
		return rm.store.RecordResult(ctx, result)
	}})
}

// Close 停止接收镜像写入，等待已排队的写入完成
//
// 之后的房间操作照常进行，只是不再写入镜像。
func (rm *RoomManager) Close(ctx context.Context) error {
	if rm.store == nil {
		return nil
	}

	rm.jobsMu.Lock()
	if !rm.stopped {
		rm.stopped = true
		close(rm.jobs)
	}
	rm.jobsMu.Unlock()

	select {
	case <-rm.drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("等待镜像写入完成: %w", ctx.Err())
	}
}
