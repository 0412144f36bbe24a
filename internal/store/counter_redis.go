package store

import (
	"context"
	"time"

	"github.com/linkpulse/linkpulse/internal/ratelimit"
	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements ratelimit.CounterStore on Redis. INCR is
// atomic server-side, which makes the counters safe under concurrent
// requests from any number of service instances.
type RedisCounterStore struct {
	client *redis.Client
}

// NewRedisCounterStore creates a new Redis-backed counter store.
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RedisCounterStore) ExpireAfter(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

// Compile-time check.
var _ ratelimit.CounterStore = (*RedisCounterStore)(nil)
