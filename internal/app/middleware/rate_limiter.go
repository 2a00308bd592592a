package middleware

import (
	"sync"
	"time"

	"condo-http-service/internal/error/code"
	"condo-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// TokenBucket 简单的令牌桶限流器
type TokenBucket struct {
	rate       float64    // 每秒填充的令牌数
	capacity   int        // 桶的容量
	tokens     float64    // 当前令牌数
	lastRefill time.Time  // 上次填充时间
	mu         sync.Mutex // 互斥锁
}

// NewTokenBucket 创建新的令牌桶限流器
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow 尝试获取令牌
func (tb *TokenBucket) Allow() bool {
	return tb.allowAt(time.Now())
}

func (tb *TokenBucket) allowAt(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens += elapsed * tb.rate
		tb.lastRefill = now
	}
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) idleSince(now time.Time) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return now.Sub(tb.lastRefill)
}

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	Rate    float64                   // 每秒允许的请求数
	Burst   int                       // 允许的突发请求数
	MaxIdle time.Duration             // 空闲超过该时间的限流器会被清理
	KeyFunc func(*gin.Context) string // 限流键，默认按客户端IP
}

// DefaultRateLimiterConfig 默认限流器配置
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:    30,
	Burst:   50,
	MaxIdle: time.Hour,
}

// RateLimiter 按键保存令牌桶
type RateLimiter struct {
	cfg      RateLimiterConfig
	mu       sync.Mutex
	limiters map[string]*TokenBucket
}

// NewRateLimiter 创建限流器，非法配置使用默认值
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = DefaultRateLimiterConfig.MaxIdle
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	return &RateLimiter{cfg: cfg, limiters: make(map[string]*TokenBucket)}
}

func (rl *RateLimiter) bucket(key string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = NewTokenBucket(rl.cfg.Rate, rl.cfg.Burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Cleanup 删除空闲的限流器，返回删除的数量
func (rl *RateLimiter) Cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, limiter := range rl.limiters {
		if limiter.idleSince(now) > rl.cfg.MaxIdle {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// Middleware 返回限流中间件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.bucket(rl.cfg.KeyFunc(c)).Allow() {
			response.Fail(c, code.ErrTooManyRequests, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IPRateLimiter 按IP限流，并在后台定期清理空闲的限流器
func IPRateLimiter(rate float64, burst int, stop <-chan struct{}) gin.HandlerFunc {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate, Burst: burst})
	go func() {
		ticker := time.NewTicker(rl.cfg.MaxIdle)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				rl.Cleanup(now)
			case <-stop:
				return
			}
		}
	}()
	return rl.Middleware()
}
