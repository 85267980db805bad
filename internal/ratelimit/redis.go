package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps fixed-window counters in Redis so the quota is shared
// across all gateway instances. Windows are anchored by key TTL: the first
// increment of a window sets the expiry, and Redis evicts the counter when
// the window ends.
//
// Unlike MemoryStore, a rejected call still leaves the counter above the
// limit; the overshoot is invisible to clients because Remaining is
// clamped at zero and the TTL is unchanged.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(host, port string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Take implements Store using an atomic INCR with a TTL set on the first
// request of each window.
func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment counter: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to set window expiry: %w", err)
		}
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		// Counter without expiry (e.g. Expire failed earlier). Re-anchor
		// the window so the counter cannot accumulate forever and lock the
		// user out permanently.
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to repair window expiry: %w", err)
		}
		ttl = window
	}

	if count > int64(limit) {
		return Decision{Allowed: false, Remaining: 0, ResetInSeconds: resetSeconds(ttl)}, nil
	}

	return Decision{
		Allowed:        true,
		Remaining:      limit - int(count),
		ResetInSeconds: resetSeconds(ttl),
	}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
