package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/code-100-precent/LingVoice/pkg/logger"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	// 全局限流
	GlobalRPS    int
	GlobalBurst  int
	GlobalWindow time.Duration

	// 说话人级别限流（已识别的调用方）
	SpeakerRPS    int
	SpeakerBurst  int
	SpeakerWindow time.Duration

	// IP级别限流
	IPRPS    int
	IPBurst  int
	IPWindow time.Duration

	// 接口级别限流
	EndpointLimits map[string]EndpointLimit
}

// EndpointLimit 接口限流配置
type EndpointLimit struct {
	RPS    int
	Burst  int
	Window time.Duration
}

// DefaultRateLimiterConfig 默认限流配置
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GlobalRPS:     1000,
		GlobalBurst:   2000,
		GlobalWindow:  time.Minute,
		SpeakerRPS:    60,
		SpeakerBurst:  120,
		SpeakerWindow: time.Minute,
		IPRPS:         30,
		IPBurst:       60,
		IPWindow:      time.Minute,
		EndpointLimits: map[string]EndpointLimit{
			// 声纹注册：每分钟10次
			"/api/voice/enroll": {
				RPS:    2,
				Burst:  10,
				Window: time.Minute,
			},
			// 声纹认证：每分钟30次
			"/api/voice/authenticate": {
				RPS:    5,
				Burst:  30,
				Window: time.Minute,
			},
			// 语音克隆：每分钟6次，下游合成服务较慢
			"/api/voice/clone-voice": {
				RPS:    1,
				Burst:  6,
				Window: time.Minute,
			},
		},
	}
}

// TokenBucket 令牌桶
type TokenBucket struct {
	capacity   int
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建令牌桶
func NewTokenBucket(rps, burst int) *TokenBucket {
	return &TokenBucket{
		capacity:   burst,
		tokens:     float64(burst),
		refillRate: float64(rps),
		lastRefill: time.Now(),
	}
}

// Take 尝试取出一个令牌
func (tb *TokenBucket) Take() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

type bucketEntry struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// RateLimiter 多维度限流器
type RateLimiter struct {
	config RateLimiterConfig

	globalBucket *TokenBucket

	speakerBuckets  map[string]*bucketEntry
	ipBuckets       map[string]*bucketEntry
	endpointBuckets map[string]*TokenBucket

	blockedTotal uint64
	allowedTotal uint64

	mu sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:          cfg,
		globalBucket:    NewTokenBucket(cfg.GlobalRPS, cfg.GlobalBurst),
		speakerBuckets:  make(map[string]*bucketEntry),
		ipBuckets:       make(map[string]*bucketEntry),
		endpointBuckets: make(map[string]*TokenBucket),
	}

	for endpoint, limit := range cfg.EndpointLimits {
		rl.endpointBuckets[endpoint] = NewTokenBucket(limit.RPS, limit.Burst)
	}

	go rl.cleanupLoop()
	return rl
}

// cleanupLoop 定期回收长时间不活跃的桶
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-15 * time.Minute)
		rl.mu.Lock()
		for k, e := range rl.speakerBuckets {
			if e.lastSeen.Before(cutoff) {
				delete(rl.speakerBuckets, k)
			}
		}
		for k, e := range rl.ipBuckets {
			if e.lastSeen.Before(cutoff) {
				delete(rl.ipBuckets, k)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) speakerBucket(speaker string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.speakerBuckets[speaker]
	if !ok {
		e = &bucketEntry{bucket: NewTokenBucket(rl.config.SpeakerRPS, rl.config.SpeakerBurst)}
		rl.speakerBuckets[speaker] = e
	}
	e.lastSeen = time.Now()
	return e.bucket
}

func (rl *RateLimiter) ipBucket(ip string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.ipBuckets[ip]
	if !ok {
		e = &bucketEntry{bucket: NewTokenBucket(rl.config.IPRPS, rl.config.IPBurst)}
		rl.ipBuckets[ip] = e
	}
	e.lastSeen = time.Now()
	return e.bucket
}

// Allow 检查请求是否放行。speaker 为空表示未认证的调用方，仅按 IP 维度限流。
// 返回放行结果与拒绝原因。
func (rl *RateLimiter) Allow(speaker, ip, endpoint string) (bool, string) {
	if !rl.globalBucket.Take() {
		rl.recordBlocked()
		return false, "global rate limit exceeded"
	}

	if eb, ok := rl.endpointBuckets[endpoint]; ok {
		if !eb.Take() {
			rl.recordBlocked()
			return false, "endpoint rate limit exceeded"
		}
	}

	if ip != "" {
		if !rl.ipBucket(ip).Take() {
			rl.recordBlocked()
			return false, "ip rate limit exceeded"
		}
	}

	if speaker != "" {
		if !rl.speakerBucket(speaker).Take() {
			rl.recordBlocked()
			return false, "speaker rate limit exceeded"
		}
	}

	rl.mu.Lock()
	rl.allowedTotal++
	rl.mu.Unlock()
	return true, ""
}

// AllowSpeaker 只检查说话人维度的桶。全局中间件跑在令牌校验之前拿不到
// 说话人身份，该维度由令牌校验之后的路由组单独执行。
func (rl *RateLimiter) AllowSpeaker(speaker string) (bool, string) {
	if speaker == "" {
		return true, ""
	}
	if !rl.speakerBucket(speaker).Take() {
		rl.recordBlocked()
		return false, "speaker rate limit exceeded"
	}
	return true, ""
}

func (rl *RateLimiter) recordBlocked() {
	rl.mu.Lock()
	rl.blockedTotal++
	rl.mu.Unlock()
}

// GetStats 获取限流统计信息
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"allowed_total":    rl.allowedTotal,
		"blocked_total":    rl.blockedTotal,
		"speaker_buckets":  len(rl.speakerBuckets),
		"ip_buckets":       len(rl.ipBuckets),
		"endpoint_buckets": len(rl.endpointBuckets),
	}
}

var (
	globalRateLimiter *RateLimiter
	rateLimiterOnce   sync.Once
)

// GetRateLimiter 获取全局限流器
func GetRateLimiter() *RateLimiter {
	rateLimiterOnce.Do(func() {
		globalRateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	})
	return globalRateLimiter
}

// RateLimitMiddleware 全局限流中间件，按全局、接口、IP 三个维度计数。
// 说话人维度见 SpeakerRateLimitMiddleware。
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, reason := GetRateLimiter().Allow("", c.ClientIP(), c.Request.URL.Path)
		if !allowed {
			rejectRateLimited(c, reason)
			return
		}
		c.Next()
	}
}

// SpeakerRateLimitMiddleware 说话人维度限流，挂在令牌校验之后的路由组上，
// 从上下文取出已认证的注册名计数。
func SpeakerRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		speaker := ""
		if v, ok := c.Get("verified_speaker"); ok {
			if s, ok := v.(string); ok {
				speaker = s
			}
		}

		allowed, reason := GetRateLimiter().AllowSpeaker(speaker)
		if !allowed {
			rejectRateLimited(c, reason)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, reason string) {
	logger.Warn("request rate limited",
		zap.String("ip", c.ClientIP()),
		zap.String("endpoint", c.Request.URL.Path),
		zap.String("reason", reason))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code":  http.StatusTooManyRequests,
		"msg":   "Too many requests",
		"error": "RATE_LIMITED",
	})
}
