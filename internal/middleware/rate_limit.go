package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Burst is the bucket size of the in-process limiter
	Burst int
	// KeyPrefix namespaces Redis keys
	KeyPrefix string
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Limit() int
}

// RedisLimiter is a fixed-window counter shared by every server instance.
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	now    func() time.Time
}

// NewRedisLimiter creates a new Redis backed limiter
func NewRedisLimiter(redisClient *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		config: config,
		now:    time.Now,
	}
}

// Limit returns the number of requests allowed per window.
func (rl *RedisLimiter) Limit() int {
	return rl.config.Limit
}

// Allow counts the request against the current window.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := rl.now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	// INCR and EXPIRE travel together so a counter never outlives its window
	pipe := rl.redis.TxPipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= rl.config.Limit,
		Remaining: remaining,
		ResetAt:   windowStart.Add(rl.config.Window),
	}, nil
}

// LocalLimiter keeps one token bucket per key in process memory. It is used
// when no Redis server is configured. Buckets idle long enough to have
// refilled are swept, so the map only holds recently active clients.
type LocalLimiter struct {
	mu        sync.Mutex
	clients   map[string]*localClient
	config    RateLimitConfig
	every     time.Duration
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates an in-process limiter
func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	every := config.Window / time.Duration(config.Limit)

	// a bucket untouched for this long is full again, same as a new one
	idleTTL := every * time.Duration(config.Burst)
	if idleTTL < config.Window {
		idleTTL = config.Window
	}

	return &LocalLimiter{
		clients: make(map[string]*localClient),
		config:  config,
		every:   every,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Limit returns the number of requests allowed per window.
func (l *LocalLimiter) Limit() int {
	return l.config.Limit
}

// Allow takes a token from the bucket for key.
func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	client, ok := l.clients[key]
	if !ok {
		client = &localClient{limiter: rate.NewLimiter(rate.Every(l.every), l.config.Burst)}
		l.clients[key] = client
	}
	client.lastSeen = now
	l.mu.Unlock()

	lim := client.limiter
	allowed := lim.AllowN(now, 1)
	remaining := int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   now.Add(l.every),
	}, nil
}

// sweep drops idle clients at most once per idleTTL. Callers hold l.mu.
func (l *LocalLimiter) sweep(now time.Time) {
	if l.lastSweep.IsZero() {
		l.lastSweep = now
		return
	}
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) >= l.idleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects clients, keyed by IP, that exceed the limiter. A failing
// limiter lets the request through.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Warn("rate limit check failed", "error", err, "request_id", GetRequestID(c))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			rateLimitRejects.Inc()
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
