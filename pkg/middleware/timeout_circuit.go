package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/code-100-precent/LingVoice/pkg/logger"
)

// TimeoutConfig 超时配置
type TimeoutConfig struct {
	// 默认超时时间
	DefaultTimeout time.Duration
	// 接口级别超时配置
	EndpointTimeouts map[string]time.Duration
	// 超时后的降级响应
	FallbackResponse interface{}
}

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	// 失败阈值
	FailureThreshold int
	// 半开状态下的成功阈值
	SuccessThreshold int
	// 熔断器打开后的等待时间
	OpenTimeout time.Duration
	// 最大并发请求数
	MaxConcurrentRequests int
}

// CircuitBreakerState 熔断器状态
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateHalfOpen
	StateOpen
)

// CircuitBreaker 按接口维度统计失败并在下游持续出错时快速拒绝
type CircuitBreaker struct {
	config          CircuitBreakerConfig
	state           CircuitBreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	nextAttemptTime time.Time
	concurrentCount int
	mu              sync.RWMutex
}

// NewCircuitBreaker 创建熔断器
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// DefaultCircuitBreakerConfig 默认熔断器配置
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:      5,
		SuccessThreshold:      3,
		OpenTimeout:           60 * time.Second,
		MaxConcurrentRequests: 100,
	}
}

// Allow 检查是否允许请求
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()

	switch cb.state {
	case StateClosed:
		if cb.concurrentCount >= cb.config.MaxConcurrentRequests {
			return false
		}
		cb.concurrentCount++
		return true

	case StateOpen:
		if now.After(cb.nextAttemptTime) {
			cb.state = StateHalfOpen
			cb.successCount = 0
			cb.concurrentCount++
			return true
		}
		return false

	case StateHalfOpen:
		// 半开状态下每次只放行一个探测请求
		if cb.concurrentCount >= 1 {
			return false
		}
		cb.concurrentCount++
		return true

	default:
		return false
	}
}

// RecordSuccess 记录成功
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.concurrentCount--
	if cb.concurrentCount < 0 {
		cb.concurrentCount = 0
	}

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0

	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
		}
	}
}

// RecordFailure 记录失败
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.concurrentCount--
	if cb.concurrentCount < 0 {
		cb.concurrentCount = 0
	}

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.nextAttemptTime = time.Now().Add(cb.config.OpenTimeout)
		}

	case StateHalfOpen:
		cb.state = StateOpen
		cb.nextAttemptTime = time.Now().Add(cb.config.OpenTimeout)
	}
}

// GetState 获取熔断器状态
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// GetStats 获取熔断器统计信息
func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return map[string]interface{}{
		"state":            cb.state,
		"failure_count":    cb.failureCount,
		"success_count":    cb.successCount,
		"concurrent_count": cb.concurrentCount,
		"last_failure":     cb.lastFailureTime,
		"next_attempt":     cb.nextAttemptTime,
	}
}

// TimeoutCircuitManager 超时和熔断管理器
type TimeoutCircuitManager struct {
	timeoutConfig        TimeoutConfig
	circuitBreakerConfig CircuitBreakerConfig
	circuitBreakers      sync.Map // map[string]*CircuitBreaker
}

// NewTimeoutCircuitManager 创建超时和熔断管理器
func NewTimeoutCircuitManager(timeoutConfig TimeoutConfig, cbConfig CircuitBreakerConfig) *TimeoutCircuitManager {
	return &TimeoutCircuitManager{
		timeoutConfig:        timeoutConfig,
		circuitBreakerConfig: cbConfig,
	}
}

// DefaultTimeoutConfig 默认超时配置。认证和注册要走完整的解码、特征提取和
// 远程嵌入调用；克隆还要串联文本生成与语音合成，超时放宽。
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		DefaultTimeout: 30 * time.Second,
		EndpointTimeouts: map[string]time.Duration{
			"/api/voice/enroll":       60 * time.Second,
			"/api/voice/authenticate": 60 * time.Second,
			"/api/voice/clone-voice":  2 * time.Minute,
		},
		FallbackResponse: map[string]interface{}{
			"code":  http.StatusServiceUnavailable,
			"msg":   "Service temporarily unavailable, please retry later",
			"error": "SERVICE_UNAVAILABLE",
		},
	}
}

func (tcm *TimeoutCircuitManager) getCircuitBreaker(endpoint string) *CircuitBreaker {
	if cb, ok := tcm.circuitBreakers.Load(endpoint); ok {
		return cb.(*CircuitBreaker)
	}

	cb := NewCircuitBreaker(tcm.circuitBreakerConfig)
	tcm.circuitBreakers.Store(endpoint, cb)
	return cb
}

func (tcm *TimeoutCircuitManager) getTimeout(endpoint string) time.Duration {
	if timeout, exists := tcm.timeoutConfig.EndpointTimeouts[endpoint]; exists {
		return timeout
	}
	return tcm.timeoutConfig.DefaultTimeout
}

var (
	globalTimeoutCircuitManager *TimeoutCircuitManager
	timeoutCircuitOnce          sync.Once
)

// GetTimeoutCircuitManager 获取全局超时熔断管理器
func GetTimeoutCircuitManager() *TimeoutCircuitManager {
	timeoutCircuitOnce.Do(func() {
		globalTimeoutCircuitManager = NewTimeoutCircuitManager(
			DefaultTimeoutConfig(),
			DefaultCircuitBreakerConfig(),
		)
	})
	return globalTimeoutCircuitManager
}

// TimeoutCircuitMiddleware 组合超时和熔断中间件
func TimeoutCircuitMiddleware() gin.HandlerFunc {
	manager := GetTimeoutCircuitManager()

	return func(c *gin.Context) {
		endpoint := c.Request.URL.Path
		cb := manager.getCircuitBreaker(endpoint)

		if !cb.Allow() {
			logger.Warn("circuit breaker blocked request",
				zap.String("endpoint", endpoint),
				zap.Int("state", int(cb.GetState())))

			c.JSON(http.StatusServiceUnavailable, manager.timeoutConfig.FallbackResponse)
			c.Abort()
			return
		}

		timeout := manager.getTimeout(endpoint)
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})
		var requestPanic interface{}

		go func() {
			defer func() {
				if r := recover(); r != nil {
					requestPanic = r
				}
				close(done)
			}()
			c.Next()
		}()

		select {
		case <-done:
			if requestPanic != nil {
				logger.Error("request panic",
					zap.String("endpoint", endpoint),
					zap.Any("panic", requestPanic))
				cb.RecordFailure()
				if !c.Writer.Written() {
					c.JSON(http.StatusInternalServerError, gin.H{
						"code":  http.StatusInternalServerError,
						"msg":   "Internal server error",
						"error": "UNKNOWN_ERROR",
					})
				}
				return
			}

			status := c.Writer.Status()
			if status >= 200 && status < 400 {
				cb.RecordSuccess()
			} else if status >= 500 {
				cb.RecordFailure()
			} else {
				// 4xx 是客户端问题，不计入熔断失败
				cb.RecordSuccess()
			}
		case <-ctx.Done():
			cb.RecordFailure()
			logger.Warn("request timeout",
				zap.String("endpoint", endpoint),
				zap.Duration("timeout", timeout))

			if !c.Writer.Written() {
				c.JSON(http.StatusRequestTimeout, gin.H{
					"code":    http.StatusRequestTimeout,
					"msg":     "Request timed out",
					"error":   "REQUEST_TIMEOUT",
					"timeout": timeout.String(),
				})
			}
			c.Abort()
		}
	}
}

// GetCircuitBreakerStats 获取所有熔断器统计信息
func GetCircuitBreakerStats() map[string]interface{} {
	manager := GetTimeoutCircuitManager()
	stats := make(map[string]interface{})

	manager.circuitBreakers.Range(func(key, value interface{}) bool {
		stats[key.(string)] = value.(*CircuitBreaker).GetStats()
		return true
	})

	return stats
}
