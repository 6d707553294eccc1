package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/scaleurl/internal/ratelimit"
)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store.
type RateLimitRedisStore struct {
	client redis.UniversalClient
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client redis.UniversalClient) *RateLimitRedisStore {
	return &RateLimitRedisStore{client: client}
}

func (s *RateLimitRedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *RateLimitRedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.PExpire(ctx, key, ttl).Err()
}

// TTL uses PTTL so sub-second remainders still count as a live window.
// go-redis reports the -1 and -2 replies unscaled, matching ratelimit.NoExpiry and ratelimit.KeyMissing.
func (s *RateLimitRedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.PTTL(ctx, key).Result()
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitRedisStore)(nil)
