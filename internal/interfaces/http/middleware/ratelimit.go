package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Requests per second allowed
	RequestsPerSecond float64
	// Burst size (max requests in a burst)
	Burst int
	// Key function to identify clients (default: by IP)
	KeyFunc func(*gin.Context) string
	// Cleanup interval for stale limiters
	CleanupInterval time.Duration
	// Max idle time before a limiter is removed
	MaxIdleTime time.Duration
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		KeyFunc:           defaultKeyFunc,
		CleanupInterval:   5 * time.Minute,
		MaxIdleTime:       10 * time.Minute,
	}
}

// defaultKeyFunc identifies clients by IP address
func defaultKeyFunc(c *gin.Context) string {
	return c.ClientIP()
}

// tokenBucket implements a simple token bucket rate limiter
type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	lastAccess time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	now := time.Now()
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: now,
		lastAccess: now,
	}
}

// allow checks if a request is allowed and consumes a token if so
func (tb *tokenBucket) allow() (allowed bool, remaining int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.lastAccess = now

	// Refill tokens based on elapsed time
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true, int(tb.tokens)
	}
	return false, 0
}

func (tb *tokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastAccess
}

// rateLimiter manages token buckets per client key
type rateLimiter struct {
	buckets sync.Map // key -> *tokenBucket
	config  RateLimitConfig
	done    chan struct{}
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	rl := &rateLimiter{
		config: cfg,
		done:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// cleanupLoop periodically removes stale limiters to prevent memory leaks
func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.config.MaxIdleTime)
			rl.buckets.Range(func(key, value interface{}) bool {
				bucket := value.(*tokenBucket)
				if bucket.idleSince().Before(cutoff) {
					rl.buckets.Delete(key)
				}
				return true
			})
		}
	}
}

func (rl *rateLimiter) stop() {
	close(rl.done)
}

func (rl *rateLimiter) getBucket(key string) *tokenBucket {
	if b, ok := rl.buckets.Load(key); ok {
		return b.(*tokenBucket)
	}
	bucket := newTokenBucket(rl.config.RequestsPerSecond, rl.config.Burst)
	actual, _ := rl.buckets.LoadOrStore(key, bucket)
	return actual.(*tokenBucket)
}

// RateLimit returns a rate limiting middleware with default configuration
func RateLimit() gin.HandlerFunc {
	return RateLimitWithConfig(DefaultRateLimitConfig())
}

// RateLimitWithConfig returns a rate limiting middleware with custom configuration
func RateLimitWithConfig(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = defaultKeyFunc
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.MaxIdleTime <= 0 {
		cfg.MaxIdleTime = 10 * time.Minute
	}

	limiter := newRateLimiter(cfg)

	return func(c *gin.Context) {
		key := cfg.KeyFunc(c)
		bucket := limiter.getBucket(key)

		allowed, remaining := bucket.allow()

		c.Writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
		c.Writer.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Writer.Header().Set("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded, please try again later",
			})
			return
		}

		c.Next()
	}
}
