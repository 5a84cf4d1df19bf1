package middleware

import (
	"sync"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/example/goshop/internal/config"
)

// TokenBucket 令牌桶限流器
type TokenBucket struct {
	capacity   int64 // 桶容量
	tokens     int64 // 当前令牌数
	refillRate int64 // 每秒补充的令牌数
	lastRefill time.Time
	mu         sync.Mutex
	now        func() time.Time
}

// NewTokenBucket 创建令牌桶
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Allow 检查是否允许请求
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	tokensToAdd := int64(now.Sub(tb.lastRefill).Seconds()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimitMiddleware 限流中间件
func RateLimitMiddleware(bucket *TokenBucket) iris.Handler {
	return func(ctx iris.Context) {
		if !bucket.Allow() {
			ctx.StopWithJSON(iris.StatusTooManyRequests, iris.Map{
				"code": iris.StatusTooManyRequests,
				"msg":  "too many requests, please retry later",
			})
			return
		}
		ctx.Next()
	}
}

// OrderRateLimit 下单接口限流，容量为 0 时不限流
func OrderRateLimit(cfg *config.RateLimitConfig) iris.Handler {
	if cfg.Capacity <= 0 {
		return func(ctx iris.Context) { ctx.Next() }
	}
	return RateLimitMiddleware(NewTokenBucket(cfg.Capacity, cfg.RefillRate))
}
