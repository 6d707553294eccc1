package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/scaleurl/internal/ratelimit"
)

type windowCounter struct {
	count     int64
	expiresAt time.Time // zero when no expiry is attached
}

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store that
// mimics Redis INCR / PEXPIRE / PTTL semantics.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		counters: make(map[string]*windowCounter),
	}
}

func (s *RateLimitMemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter := s.live(key, time.Now())
	if counter == nil {
		counter = &windowCounter{}
		s.counters[key] = counter
	}

	counter.count++

	return counter.count, nil
}

func (s *RateLimitMemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if counter := s.live(key, now); counter != nil {
		counter.expiresAt = now.Add(ttl)
	}

	return nil
}

func (s *RateLimitMemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	counter := s.live(key, now)
	if counter == nil {
		return ratelimit.KeyMissing, nil
	}

	if counter.expiresAt.IsZero() {
		return ratelimit.NoExpiry, nil
	}

	return counter.expiresAt.Sub(now), nil
}

// live returns the counter for key, dropping it first when it has expired.
func (s *RateLimitMemoryStore) live(key string, now time.Time) *windowCounter {
	counter, ok := s.counters[key]
	if !ok {
		return nil
	}

	if !counter.expiresAt.IsZero() && !now.Before(counter.expiresAt) {
		delete(s.counters, key)

		return nil
	}

	return counter
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
