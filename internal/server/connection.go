package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/server/storage"
	"github.com/palemoky/catch-the-ten/internal/types"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		klog.Infof("🔧 维护模式，拒绝新连接: %s", clientIP)
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制，连接关闭时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		klog.Warningf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	release := func() { <-s.semaphore }

	if !s.ipFilter.IsAllowed(clientIP) {
		release()
		klog.Warningf("🚫 IP %s 被过滤器拒绝", clientIP)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !s.originChecker.Check(r) {
		release()
		klog.Warningf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		release()
		klog.Warningf("🚫 IP %s 请求过于频繁", clientIP)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		release()
		klog.Warningf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	// 连接成功消息携带玩家身份
	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.ID,
	}))

	klog.Infof("✅ 玩家 %s 已连接 (IP: %s)", client.ID, clientIP)

	go func() {
		defer release()
		client.ReadPump()
	}()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statsResponse /stats 响应
type statsResponse struct {
	Online         int                   `json:"online"`
	MaxConnections int                   `json:"max_connections"`
	Rooms          int                   `json:"rooms"`
	ActiveGames    int                   `json:"active_games"`
	Maintenance    bool                  `json:"maintenance"`
	Games          map[string]int64      `json:"games,omitempty"`  // Redis 中的累计对局数
	Recent         []*storage.ResultData `json:"recent,omitempty"` // 最近的对局，最新的在前
}

// recentResultsOnStats /stats 附带的最近对局数
const recentResultsOnStats = 5

// handleStats 服务器统计接口
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Online:         s.GetOnlineCount(),
		MaxConnections: s.maxConnections,
		Rooms:          s.roomManager.RoomCount(),
		ActiveGames:    s.roomManager.GetActiveGamesCount(),
		Maintenance:    s.IsMaintenanceMode(),
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		games, err := s.store.GameStats(ctx)
		if err != nil {
			klog.Warningf("读取对局统计失败: %v", err)
		}
		resp.Games = games

		recent, err := s.store.RecentResults(ctx, recentResultsOnStats)
		if err != nil {
			klog.Warningf("读取最近对局失败: %v", err)
		}
		resp.Recent = recent
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		klog.Warningf("写入统计响应失败: %v", err)
	}
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	// 同一 ID 可能已被重新注册
	if cur, ok := s.clients[client.ID]; ok && cur == client {
		delete(s.clients, client.ID)
		klog.Infof("❌ 玩家 %s (%s) 已断开", client.GetName(), client.ID)
	}
}

// GetClientByID 在线连接，不存在时返回 nil
func (s *Server) GetClientByID(id string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if c, ok := s.clients[id]; ok {
		return c
	}
	return nil
}

// RegisterClient 以指定 ID 注册连接
func (s *Server) RegisterClient(id string, client types.ClientInterface) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if c, ok := client.(*Client); ok {
		s.clients[id] = c
	}
}

// UnregisterClient 按 ID 注销连接
func (s *Server) UnregisterClient(id string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, id)
}
