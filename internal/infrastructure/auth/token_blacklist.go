package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens before they expire.
// Single tokens are revoked by JTI (logout); whole sessions by a per-user cutoff (password change, deactivation).
type TokenBlacklist interface {
	// Revoke blacklists a JTI until ttl elapses
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeUser rejects every token for the user issued at or before now
	RevokeUser(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error)
}

const blacklistPrefix = "crm:auth:revoked:"

// RedisTokenBlacklist stores revocations in Redis so every API instance sees them
type RedisTokenBlacklist struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisTokenBlacklist wraps an existing Redis client
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, prefix: blacklistPrefix, now: time.Now}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.prefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) userKey(userID uuid.UUID) string {
	return b.prefix + "user:" + userID.String()
}

// Revoke blacklists a JTI
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks a JTI
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// RevokeUser stores the cutoff timestamp for the user
func (b *RedisTokenBlacklist) RevokeUser(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	cutoff := b.now().Unix()
	if err := b.client.Set(ctx, b.userKey(userID), cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevoked reports whether the token was issued at or before the user's cutoff
func (b *RedisTokenBlacklist) IsUserRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation cutoff: %w", err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is used when Redis is disabled. Revocations are local to the process.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	jtis    map[string]time.Time
	cutoffs map[uuid.UUID]time.Time
	now     func() time.Time
}

// NewInMemoryTokenBlacklist creates an empty in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:    make(map[string]time.Time),
		cutoffs: make(map[uuid.UUID]time.Time),
		now:     time.Now,
	}
}

// Revoke blacklists a JTI
func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = b.now().Add(ttl)
	return nil
}

// IsRevoked checks a JTI, dropping expired entries
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, ok := b.jtis[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(expiresAt) {
		delete(b.jtis, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser stores the cutoff for the user
func (b *InMemoryTokenBlacklist) RevokeUser(_ context.Context, userID uuid.UUID, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cutoffs[userID] = b.now()
	return nil
}

// IsUserRevoked reports whether the token was issued at or before the user's cutoff
func (b *InMemoryTokenBlacklist) IsUserRevoked(_ context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff, ok := b.cutoffs[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Unix() <= cutoff.Unix(), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
