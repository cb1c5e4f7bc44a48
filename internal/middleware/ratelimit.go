package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/metrics"
	"github.com/threadfit/backend/internal/util"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Name labels the limiter in metrics
	Name string
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket for a request; defaults to client IP
	KeyFunc func(c *gin.Context) string
	// IdleTTL drops buckets unused for this long
	IdleTTL time.Duration
}

// AuthRateLimitConfig returns strict limits for credential endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:   "auth",
		Limit:  10,          // 10 requests
		Window: time.Minute, // per minute
	}
}

// SyntheticRateLimitConfig returns limits for pull-mode generation
func SyntheticRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Name:   "synthetic",
		Limit:  30,
		Window: time.Minute,
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	config  RateLimitConfig
	limit   rate.Limit
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewRateLimiter builds a limiter; use Middleware to mount it.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.Limit < 1 {
		config.Limit = 1
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	if config.Name == "" {
		config.Name = "default"
	}

	return &RateLimiter{
		config:  config,
		limit:   rate.Limit(float64(config.Limit) / config.Window.Seconds()),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether key may proceed, and if not how long to wait.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		rl.evictIdle(now)
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.config.Limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, rl.config.Window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// evictIdle runs on bucket creation so the map stays bounded without a
// background goroutine.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.config.IdleTTL {
			delete(rl.buckets, key)
		}
	}
}

// Size returns the number of tracked keys.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	exceeded := metrics.Get().RateLimitExceededTotal.WithLabelValues(rl.config.Name)

	return func(c *gin.Context) {
		key := rl.config.KeyFunc(c)
		ok, wait := rl.Allow(key)
		if !ok {
			retryAfter := int(math.Ceil(wait.Seconds()))
			exceeded.Inc()
			logger.Log.Info("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				logger.WithRequestID(GetRequestID(c)),
			)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			util.RespondWithAPIError(c, apierrors.RateLimited("").
				WithDetails(fmt.Sprintf("retry after %ds", retryAfter)))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitAuth returns a middleware for auth endpoints
func RateLimitAuth() gin.HandlerFunc {
	return NewRateLimiter(AuthRateLimitConfig()).Middleware()
}

// RateLimitSynthetic returns a middleware for pull-mode generation
func RateLimitSynthetic() gin.HandlerFunc {
	return NewRateLimiter(SyntheticRateLimitConfig()).Middleware()
}
