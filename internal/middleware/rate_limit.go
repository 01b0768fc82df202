package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/remfix/remfix/internal/apierrors"
	"github.com/remfix/remfix/internal/config"
)

// Limiter answers whether one more request under a key is allowed.
type Limiter interface {
	Allow(key string, limit int) bool
}

// RateLimiter is an in-memory token bucket limiter, refilled continuously
// at limit/hour.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cleanup time.Duration
}

type bucket struct {
	tokens     float64
	limit      float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates an in-memory limiter and starts its cleanup loop.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		cleanup: 10 * time.Minute,
	}
	go rl.cleanupLoop()
	return rl
}

// Allow consumes a token if one is available.
func (rl *RateLimiter) Allow(key string, limit int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{
			tokens:     float64(limit),
			limit:      float64(limit),
			refillRate: float64(limit) / 3600.0,
			lastRefill: time.Now(),
		}
		rl.buckets[key] = b
	}

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.limit {
		b.tokens = b.limit
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.cleanup)
		for key, b := range rl.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RedisLimiter counts requests in fixed hourly windows. Used when the CRM
// runs more than one instance behind a balancer.
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter creates a limiter over a redis connection.
func NewRedisLimiter(addr string) *RedisLimiter {
	return &RedisLimiter{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Allow increments the key's window counter. Redis errors allow the
// request; losing rate limiting briefly beats locking everyone out.
func (rl *RedisLimiter) Allow(key string, limit int) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	window := time.Now().Unix() / 3600
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, window)
	n, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true
	}
	if n == 1 {
		rl.client.Expire(ctx, redisKey, time.Hour)
	}
	return n <= int64(limit)
}

// NewLimiterFromConfig picks redis when an address is configured, else the
// in-memory bucket limiter.
func NewLimiterFromConfig(cfg config.RateLimitConfig) Limiter {
	if cfg.RedisAddr != "" {
		return NewRedisLimiter(cfg.RedisAddr)
	}
	return NewRateLimiter()
}

// LoginRateLimit throttles the login endpoint per client IP.
func LoginRateLimit(limiter Limiter, perHour int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow("login:"+c.ClientIP(), perHour) {
			c.Header("Retry-After", "60")
			apierrors.Error(c, apierrors.CodeRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
