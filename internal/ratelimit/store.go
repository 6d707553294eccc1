package ratelimit

import (
	"context"
	"time"
)

// TTL sentinels reported by Store.TTL, matching the Redis PTTL replies.
const (
	// KeyMissing means the counter does not exist.
	KeyMissing time.Duration = -2
	// NoExpiry means the counter exists but has no expiry attached.
	NoExpiry time.Duration = -1
)

// Store holds fixed-window counters. Only Incr needs to be atomic.
type Store interface {
	// Incr atomically increments the counter and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Expire attaches ttl to an existing counter.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining lifetime of the counter, or KeyMissing / NoExpiry.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
