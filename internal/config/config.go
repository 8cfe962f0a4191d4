package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultMaxConnections = 10000
	defaultEncoding       = EncodingJSON
	defaultSendBuffer     = 256

	defaultRedisAddr     = "localhost:6379"
	defaultResultHistory = 100

	defaultShutdownTimeout       = 30 // 分钟
	defaultShutdownCheckInterval = 10 // 秒

	defaultRateMaxPerSecond    = 10
	defaultRateMaxPerMinute    = 60
	defaultBanDuration         = 60 // 秒
	defaultMessageMaxPerSecond = 20
)

// 消息编码
const (
	EncodingJSON     = "json"
	EncodingProtobuf = "protobuf"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	Encoding       string `yaml:"encoding"`    // json | protobuf
	SendBuffer     int    `yaml:"send_buffer"` // 每个连接的发送缓冲
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ResultHistory int    `yaml:"result_history"` // 保留的最近对局数
}

// GameConfig 游戏配置
type GameConfig struct {
	ShutdownTimeout       int `yaml:"shutdown_timeout"`        // 优雅关闭最长等待（分钟）
	ShutdownCheckInterval int `yaml:"shutdown_check_interval"` // 关闭时检查进行中对局的间隔（秒）
}

// ShutdownTimeoutDuration 返回优雅关闭最长等待时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

// ShutdownCheckIntervalDuration 返回关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	BlockedIPs     []string           `yaml:"blocked_ips"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接频率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 单连接消息频率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Load 加载配置文件，环境变量优先于文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	var cfg Config
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	if cfg.Server.Encoding == "" {
		cfg.Server.Encoding = defaultEncoding
	}
	if cfg.Server.SendBuffer == 0 {
		cfg.Server.SendBuffer = defaultSendBuffer
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Redis.ResultHistory == 0 {
		cfg.Redis.ResultHistory = defaultResultHistory
	}

	if cfg.Game.ShutdownTimeout == 0 {
		cfg.Game.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Game.ShutdownCheckInterval == 0 {
		cfg.Game.ShutdownCheckInterval = defaultShutdownCheckInterval
	}

	sec := &cfg.Security
	if len(sec.AllowedOrigins) == 0 {
		sec.AllowedOrigins = []string{"*"}
	}
	if sec.RateLimit.MaxPerSecond == 0 {
		sec.RateLimit.MaxPerSecond = defaultRateMaxPerSecond
	}
	if sec.RateLimit.MaxPerMinute == 0 {
		sec.RateLimit.MaxPerMinute = defaultRateMaxPerMinute
	}
	if sec.RateLimit.BanDuration == 0 {
		sec.RateLimit.BanDuration = defaultBanDuration
	}
	if sec.MessageLimit.MaxPerSecond == 0 {
		sec.MessageLimit.MaxPerSecond = defaultMessageMaxPerSecond
	}
}

// applyEnv 用环境变量覆盖配置，便于容器部署
func applyEnv(cfg *Config) {
	envString("SERVER_HOST", &cfg.Server.Host)
	envInt("SERVER_PORT", &cfg.Server.Port)
	envInt("SERVER_MAX_CONNECTIONS", &cfg.Server.MaxConnections)
	envString("SERVER_ENCODING", &cfg.Server.Encoding)

	envBool("REDIS_ENABLED", &cfg.Redis.Enabled)
	envString("REDIS_ADDR", &cfg.Redis.Addr)
	envString("REDIS_PASSWORD", &cfg.Redis.Password)
	envInt("REDIS_DB", &cfg.Redis.DB)

	envInt("GAME_SHUTDOWN_TIMEOUT", &cfg.Game.ShutdownTimeout)

	if v, ok := os.LookupEnv("SECURITY_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Security.AllowedOrigins = origins
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
