package server

import (
	"context"
	"runtime"
	"time"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
)

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		klog.Infof("📊 [监控] 在线: %d | 房间: %d | 对局: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.roomManager.RoomCount(),
			s.roomManager.GetActiveGamesCount(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// EnterMaintenanceMode 进入维护模式
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	// 通知大厅用户
	s.BroadcastToLobby(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance,
		"👷🏻‍♂️ 维护模式：停止新的连接和加入房间"))

	klog.Info("🔧 进入维护模式：停止新连接和加入房间")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的对局结束后关闭服务器
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	interval := s.config.Game.ShutdownCheckIntervalDuration()
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		activeGames := s.roomManager.GetActiveGamesCount()
		if activeGames == 0 {
			klog.Info("✅ 所有对局已结束")
			break
		}
		klog.Infof("⏳ 等待 %d 个对局结束...", activeGames)
		<-ticker.C
	}

	if activeGames := s.roomManager.GetActiveGamesCount(); activeGames > 0 {
		klog.Warningf("⚠️ 超时，仍有 %d 个对局进行中，强制关闭", activeGames)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		klog.Errorf("关闭服务器失败: %v", err)
	}
}

// Shutdown 停止监听并关闭所有连接
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })

	// 被劫持的 WebSocket 连接不受 http.Server.Shutdown 影响，需单独关闭
	err := s.httpServer.Shutdown(ctx)

	for _, client := range s.snapshotClients() {
		client.Close()
	}

	s.rateLimiter.Stop()

	// 先写完排队的镜像再关闭 Redis
	if cerr := s.roomManager.Close(ctx); cerr != nil {
		klog.Warningf("⚠️ %v", cerr)
	}

	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil {
			klog.Warningf("关闭 Redis 失败: %v", cerr)
		}
	}

	klog.Info("服务器已关闭")
	return err
}
