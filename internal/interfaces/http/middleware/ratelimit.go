package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/interfaces/http/dto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Decision is the outcome of one rate-limit check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// WindowLimiter counts requests per key in fixed windows
type WindowLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimiter is an in-memory fixed-window limiter. Idle keys are evicted by a janitor goroutine.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a new rate limiter and starts its janitor
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(period * 2)
	return rl
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, w := range rl.clients {
				if now.After(w.resetAt) {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the janitor goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Allow counts one request for key
func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.window)}
		rl.clients[key] = w
	}

	d := Decision{Limit: rl.limit, ResetIn: w.resetAt.Sub(now)}
	if w.count >= rl.limit {
		return d, nil
	}
	w.count++
	d.Allowed = true
	d.Remaining = rl.limit - w.count
	return d, nil
}

// RedisRateLimiter shares fixed-window counters across replicas
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisRateLimiter creates a limiter backed by INCR with a window-long expiry
func NewRedisRateLimiter(client *redis.Client, prefix string, limit int, period time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, prefix: prefix, limit: limit, window: period}
}

// Allow counts one request for key
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	slot := time.Now().UnixNano() / int64(rl.window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, slot)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.PExpire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true, Limit: rl.limit}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	resetIn := time.Duration(int64(rl.window) - time.Now().UnixNano()%int64(rl.window))
	d := Decision{Limit: rl.limit, ResetIn: resetIn}
	if count > rl.limit {
		return d, nil
	}
	d.Allowed = true
	d.Remaining = rl.limit - count
	return d, nil
}

// ClientKey keys anonymous traffic by IP and authenticated traffic by user
func ClientKey(c *gin.Context) string {
	if userID, ok := GetUserID(c); ok {
		return "user:" + userID.String()
	}
	return "ip:" + c.ClientIP()
}

// RateLimit returns a rate limiting middleware keyed by ClientKey
func RateLimit(limiter WindowLimiter, logger *zap.Logger) gin.HandlerFunc {
	return RateLimitByKey(limiter, ClientKey, logger)
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor.
// Counter backend failures let the request through.
func RateLimitByKey(limiter WindowLimiter, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), keyFunc(c))
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			abortTooManyRequests(c, d.ResetIn)
			return
		}
		c.Next()
	}
}

func abortTooManyRequests(c *gin.Context, retryAfter time.Duration) {
	if retryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeRateLimited,
		"Too many requests. Please try again later.",
		c.GetString(RequestIDContextKey),
	))
}
