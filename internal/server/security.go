package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

const (
	peerIdleTTL    = 10 * time.Minute // 超过该时长没有连接的 IP 记录会被清理
	peerSweepEvery = 5 * time.Minute
)

// window 固定时间窗口计数
type window struct {
	start time.Time
	n     int
}

// hit 计入一次，返回当前窗口内的次数
func (w *window) hit(now time.Time, span time.Duration) int {
	if now.Sub(w.start) >= span {
		w.start, w.n = now, 0
	}
	w.n++
	return w.n
}

// --- 连接频率 ---

// RateLimiter 按 IP 限制建立连接的频率，超限后封禁一段时间
type RateLimiter struct {
	perSecond int
	perMinute int
	ban       time.Duration

	mu    sync.Mutex
	peers map[string]*peerRate

	stop     chan struct{}
	stopOnce sync.Once
}

type peerRate struct {
	second      window
	minute      window
	bannedUntil time.Time
}

// NewRateLimiter 创建速率限制器并启动过期记录清理
func NewRateLimiter(perSecond, perMinute int, ban time.Duration) *RateLimiter {
	rl := &RateLimiter{
		perSecond: perSecond,
		perMinute: perMinute,
		ban:       ban,
		peers:     make(map[string]*peerRate),
		stop:      make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow 记录一次连接，超过每秒或每分钟上限时封禁 ban 时长
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	p, ok := rl.peers[ip]
	if !ok {
		p = &peerRate{}
		rl.peers[ip] = p
	}
	if now.Before(p.bannedUntil) {
		return false
	}

	perSec := p.second.hit(now, time.Second)
	perMin := p.minute.hit(now, time.Minute)
	if perSec <= rl.perSecond && perMin <= rl.perMinute {
		return true
	}

	p.bannedUntil = now.Add(rl.ban)
	klog.Warningf("⚠️ IP %s 连接过于频繁，封禁 %v", ip, rl.ban)
	return false
}

// Stop 停止清理协程
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(peerSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, p := range rl.peers {
				if now.Sub(p.minute.start) > peerIdleTTL && now.After(p.bannedUntil) {
					delete(rl.peers, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// --- 来源验证 ---

// OriginChecker 浏览器来源白名单
type OriginChecker struct {
	allowed map[string]struct{} // nil 表示放行所有来源
}

// NewOriginChecker 创建来源验证器，列表中出现 "*" 时不做限制
func NewOriginChecker(origins []string) *OriginChecker {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			return &OriginChecker{}
		}
		allowed[strings.ToLower(origin)] = struct{}{}
	}
	return &OriginChecker{allowed: allowed}
}

// Check 检查请求来源；模拟器等非浏览器客户端不带 Origin，直接放行
func (oc *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if oc.allowed == nil || origin == "" {
		return true
	}
	_, ok := oc.allowed[strings.ToLower(origin)]
	return ok
}

// --- IP 黑名单 ---

// IPFilter 配置中的永久黑名单加运行时的临时封禁
type IPFilter struct {
	mu        sync.RWMutex
	permanent map[string]struct{}
	until     map[string]time.Time
}

// NewIPFilter 创建 IP 过滤器
func NewIPFilter(blocked []string) *IPFilter {
	f := &IPFilter{
		permanent: make(map[string]struct{}, len(blocked)),
		until:     make(map[string]time.Time),
	}
	for _, ip := range blocked {
		f.permanent[ip] = struct{}{}
	}
	return f
}

// BlockFor 临时封禁 ip，d <= 0 时忽略
func (f *IPFilter) BlockFor(ip string, d time.Duration) {
	if ip == "" || d <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.until[ip] = time.Now().Add(d)
}

// IsAllowed 检查 IP 是否允许连接，过期的临时封禁顺便移除
func (f *IPFilter) IsAllowed(ip string) bool {
	f.mu.RLock()
	_, blocked := f.permanent[ip]
	until, temporary := f.until[ip]
	f.mu.RUnlock()

	switch {
	case blocked:
		return false
	case !temporary:
		return true
	case time.Now().Before(until):
		return false
	}

	f.mu.Lock()
	if f.until[ip].Equal(until) {
		delete(f.until, ip)
	}
	f.mu.Unlock()
	return true
}

// GetClientIP 获取客户端 IP，优先使用代理头中最原始的地址
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// --- 消息频率 ---

// MessageRateLimiter 已连接客户端的消息速率限制，实现 types.MessageLimiter
type MessageRateLimiter struct {
	perSecond int

	mu      sync.Mutex
	clients map[string]*messageRate
}

type messageRate struct {
	window
	warnings int // 被拒绝的消息数
}

// NewMessageRateLimiter 创建消息速率限制器
func NewMessageRateLimiter(perSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		perSecond: perSecond,
		clients:   make(map[string]*messageRate),
	}
}

// Allow 检查是否处理该客户端的下一条消息
func (ml *MessageRateLimiter) Allow(clientID string) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	rate, ok := ml.clients[clientID]
	if !ok {
		rate = &messageRate{}
		ml.clients[clientID] = rate
	}
	if rate.hit(time.Now(), time.Second) <= ml.perSecond {
		return true
	}
	rate.warnings++
	return false
}

// WarningCount 被拒绝的消息数
func (ml *MessageRateLimiter) WarningCount(clientID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if rate, ok := ml.clients[clientID]; ok {
		return rate.warnings
	}
	return 0
}

// RemoveClient 移除客户端记录
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.clients, clientID)
}
