package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/scaleurl/internal/shortener"
)

// Default budget for redirects of a single short code.
const (
	DefaultLimit  int64 = 100
	DefaultWindow       = 60 * time.Second
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request for the given key should be allowed.
	// A non-nil error is informational: allowed is still the decision to apply.
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// FixedWindowLimiter counts requests per key in fixed windows that reset when
// the counter expires.
//
// Increment and expiry are separate store calls, so a counter can end up
// without an expiry. Requests over the limit are only rejected while the
// counter has a positive TTL; a counter without one gets its expiry re-armed
// and the request goes through.
type FixedWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
	prefix string
}

// NewFixedWindowLimiter creates a new fixed window rate limiter. Keys are
// stored as prefix+key.
func NewFixedWindowLimiter(store Store, limit int64, window time.Duration, prefix string) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow fails open: any store error allows the request and is returned wrapped
// in shortener.ErrUnavailable.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = l.prefix + key

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return true, unavailable("incr", err)
	}

	if count == 1 {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			return true, unavailable("expire", err)
		}
	}

	if count <= l.limit {
		return true, nil
	}

	ttl, err := l.store.TTL(ctx, key)
	if err != nil {
		return true, unavailable("ttl", err)
	}

	if ttl > 0 {
		return false, nil
	}

	if ttl == NoExpiry {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			return true, unavailable("expire", err)
		}
	}

	return true, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: rate limit %s: %w", shortener.ErrUnavailable, op, err)
}
