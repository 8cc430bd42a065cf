// Package cache provides a small key/value cache with Redis and in-memory backends.
// Values are stored as JSON so both backends behave the same for callers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheUnavailable is returned when the backing store cannot be reached
var ErrCacheUnavailable = errors.New("cache unavailable")

// Cache is the read-through cache used by application services
type Cache interface {
	// Get decodes the cached value into dest. It reports false on a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	// SetNX stores value only when key is absent and reports whether it was stored
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
}

// Key joins parts into a namespaced cache key
func Key(parts ...string) string {
	return "crm:" + strings.Join(parts, ":")
}

// NewRedisClient opens and pings a Redis client
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// New returns a Redis-backed cache when Redis is enabled and reachable, otherwise an in-memory cache.
// The returned client is nil when the in-memory fallback is used.
func New(cfg config.RedisConfig, logger *zap.Logger) (Cache, *redis.Client) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory cache")
		return NewMemoryCache(time.Minute), nil
	}
	client, err := NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory cache. "+
			"Cached values and revocations will not be shared between instances.",
			zap.Error(err))
		return NewMemoryCache(time.Minute), nil
	}
	logger.Info("Using Redis cache", zap.String("addr", cfg.Addr()))
	return NewRedisCache(client), client
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache value: %w", err)
	}
	return data, nil
}

func decode(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode cache value: %w", err)
	}
	return nil
}
