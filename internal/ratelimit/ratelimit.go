// Package ratelimit throttles /game/join calls per client (A5), backed by
// Redis INCR+EXPIRE, adapted from the teacher's StatStore pattern.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store abstracts the Redis operations the limiter needs, so it can be
// swapped for a fake in tests.
type Store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisStore implements Store against a real Redis client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

// Limiter caps the number of joins a single client (keyed by remote
// address) may perform within a fixed window that starts at the client's
// first counted join. With a nil Store it is a
// no-op — joins are never rejected when Redis isn't configured, matching
// the rest of the module's "Redis is an optional accelerator" stance.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// New builds a limiter allowing up to limit joins per window per key.
// A nil store disables limiting entirely.
func New(store Store, limit int64, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow increments the counter for key and reports whether this call is
// within the limit. On any Redis error it fails open (allows the call) —
// a rate limiter outage must never block gameplay.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.store == nil || l.limit <= 0 {
		return true, nil
	}

	redisKey := fmt.Sprintf("dogwalk:joinrate:%s", key)
	count, err := l.store.Incr(ctx, redisKey)
	if err != nil {
		return true, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if count == 1 {
		if err := l.store.Expire(ctx, redisKey, l.window); err != nil {
			return true, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}

	return count <= l.limit, nil
}
