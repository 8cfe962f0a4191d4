package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/config"
	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/game/room"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/server/handler"
	"github.com/palemoky/catch-the-ten/internal/server/storage"
)

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	codec       codec.Codec
	redis       *redis.Client
	store       *storage.RedisStore // 未启用 Redis 时为 nil
	roomManager *room.RoomManager
	handler     *handler.Handler
	upgrader    websocket.Upgrader
	httpServer  *http.Server
	gameOpts    []game.Option

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	done     chan struct{}
	stopOnce sync.Once
}

// Option 服务器选项
type Option func(*Server)

// WithRedisClient 使用已有的 Redis 客户端，忽略 redis.enabled
func WithRedisClient(client *redis.Client) Option {
	return func(s *Server) { s.redis = client }
}

// WithGameOptions 传递给每局对局的选项
func WithGameOptions(opts ...game.Option) Option {
	return func(s *Server) { s.gameOpts = append(s.gameOpts, opts...) }
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	msgCodec, err := codec.ForName(cfg.Server.Encoding)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:  cfg,
		codec:   msgCodec,
		clients: make(map[string]*Client),
		done:    make(chan struct{}),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(cfg.Security.BlockedIPs),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	for _, opt := range opts {
		opt(s)
	}

	// 来源在 handleWebSocket 中已验证
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	if s.redis == nil && cfg.Redis.Enabled {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var (
		mirror room.Store
		stats  handler.StatsStore
	)
	if s.redis != nil {
		s.store = storage.NewRedisStore(s.redis, cfg.Redis.ResultHistory)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.rateLimiter.Stop()
			return nil, fmt.Errorf("redis 连接失败: %w", err)
		}
		mirror, stats = s.store, s.store
		klog.Infof("🗄️  Redis 镜像已启用: %s", cfg.Redis.Addr)
	}

	s.roomManager = room.NewRoomManager(mirror, s.gameOpts...)
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:         s,
		RoomManager:    s.roomManager,
		MessageLimiter: s.messageLimiter,
		Stats:          stats,
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	klog.Infof("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d, 编码=%s",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond,
		cfg.Server.MaxConnections, msgCodec.Name())

	return s, nil
}

// RoomManager 房间管理器
func (s *Server) RoomManager() *room.RoomManager {
	return s.roomManager
}

// Handler HTTP 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	go s.monitorStats()

	klog.Infof("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", s.httpServer.Addr, runtime.NumCPU())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
