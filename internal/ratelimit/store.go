// Package ratelimit provides the shared TTL key-value store used to
// throttle repeat submissions from the same caller. The store only
// remembers the last accepted submission time per key; the admission
// decision itself lives in internal/abuse.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rate_limit_"

// Store is a keyed last-submission store with automatic expiry.
// Implementations must be safe for concurrent use; a read-then-write race
// letting two near-simultaneous submissions through is acceptable.
type Store interface {
	// LastSubmit returns the recorded submission time for key.
	// The second return value is false when no record exists.
	LastSubmit(ctx context.Context, key string) (time.Time, bool, error)
	// Record stores at as the submission time for key, expiring after ttl.
	Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error
}

// RedisStore backs the limiter with a shared Redis instance so multiple
// service instances see one logical store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using a URL
// (redis://[user:pass@]host:port/db).
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: redis.NewClient(opt)}, nil
}

// NewRedisStoreFromClient wraps an existing client (used in tests).
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// LastSubmit implements Store.
func (s *RedisStore) LastSubmit(ctx context.Context, key string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Unreadable record; treat as absent so the caller is not blocked.
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis), true, nil
}

// Record implements Store.
func (s *RedisStore) Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	value := strconv.FormatInt(at.UnixMilli(), 10)
	return s.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
