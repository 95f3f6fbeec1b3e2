package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	pkgredis "github.com/JideOgun/Pro-Dj-sub004/pkg/redis"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/response"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Tokens per second per caller (0 = unlimited)
	RequestsPerSecond int
	BurstSize         int
	// Distributed limiting across replicas; requires RedisClient
	UseRedis        bool
	RedisClient     *pkgredis.Client
	KeyPrefix       string
	CleanupInterval time.Duration
	EntryTTL        time.Duration
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		KeyPrefix:         "ratelimit:",
		CleanupInterval:   time.Minute,
		EntryTTL:          time.Minute,
	}
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// localLimiter is an in-memory token bucket per key
type localLimiter struct {
	rps     float64
	burst   float64
	ttl     time.Duration
	entries sync.Map
	stop    chan struct{}
	once    sync.Once
}

func newLocalLimiter(cfg RateLimitConfig) *localLimiter {
	l := &localLimiter{
		rps:   float64(cfg.RequestsPerSecond),
		burst: float64(cfg.BurstSize),
		ttl:   cfg.EntryTTL,
		stop:  make(chan struct{}),
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go l.cleanup(interval)
	return l
}

func (l *localLimiter) allow(key string, now time.Time) bool {
	v, _ := l.entries.LoadOrStore(key, &bucket{tokens: l.burst, lastUpdate: now})
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastUpdate).Seconds()
	if elapsed > 0 {
		b.tokens = minFloat(l.burst, b.tokens+elapsed*l.rps)
		b.lastUpdate = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (l *localLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-l.ttl)
			l.entries.Range(func(key, value interface{}) bool {
				b := value.(*bucket)
				b.mu.Lock()
				if b.lastUpdate.Before(cutoff) {
					l.entries.Delete(key)
				}
				b.mu.Unlock()
				return true
			})
		case <-l.stop:
			return
		}
	}
}

func (l *localLimiter) close() {
	l.once.Do(func() { close(l.stop) })
}

// tokenBucketScript is an atomic token bucket; returns 1 when allowed
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + math.max(0, now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return allowed
`

// RateLimiter limits requests per caller. It is created once in main so its
// cleanup goroutine can be stopped on shutdown.
type RateLimiter struct {
	config   RateLimitConfig
	local    *localLimiter
	redis    *pkgredis.Client
	allowed  uint64
	rejected uint64
}

// NewRateLimiter creates a limiter backed by Redis when configured, else memory
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit:"
	}
	rl := &RateLimiter{config: cfg}
	if cfg.UseRedis && cfg.RedisClient != nil {
		rl.redis = cfg.RedisClient
	} else {
		rl.local = newLocalLimiter(cfg)
	}
	return rl
}

// Allow reports whether key may proceed. Redis errors fail open.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.config.RequestsPerSecond <= 0 {
		return true
	}

	var ok bool
	if rl.redis != nil {
		now := float64(time.Now().UnixNano()) / 1e9
		n, err := rl.redis.Eval(ctx, tokenBucketScript, []string{rl.config.KeyPrefix + key},
			rl.config.RequestsPerSecond, rl.config.BurstSize, now).Int64()
		ok = err != nil || n == 1
	} else {
		ok = rl.local.allow(key, time.Now())
	}

	if ok {
		atomic.AddUint64(&rl.allowed, 1)
	} else {
		atomic.AddUint64(&rl.rejected, 1)
	}
	return ok
}

// Stats returns allowed and rejected counts
func (rl *RateLimiter) Stats() (allowed, rejected uint64) {
	return atomic.LoadUint64(&rl.allowed), atomic.LoadUint64(&rl.rejected)
}

// Stop ends the local cleanup goroutine
func (rl *RateLimiter) Stop() {
	if rl.local != nil {
		rl.local.close()
	}
}

// Middleware keys on the authenticated user when present, otherwise the client IP
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limiter")
		defer span.End()

		key := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = "user:" + userID
		}

		allowed := rl.Allow(ctx, key)
		span.SetAttributes(attribute.String("rate_limit.key", key), attribute.Bool("allowed", allowed))

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.RequestsPerSecond))
		if !allowed {
			c.Header("Retry-After", "1")
			response.Abort(c, http.StatusTooManyRequests, response.CodeRateLimited,
				fmt.Sprintf("Rate limit exceeded. Please retry after %d second(s).", 1))
			return
		}

		c.Next()
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
