package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/scaleurl/internal/ratelimit"
	"github.com/serroba/scaleurl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMemoryStore(t *testing.T) {
	t.Run("increments counters", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for want := int64(1); want <= 3; want++ {
			count, err := s.Incr(context.Background(), "rate:key1")

			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Incr(context.Background(), "rate:key1")
		_, _ = s.Incr(context.Background(), "rate:key1")

		count, err := s.Incr(context.Background(), "rate:key2")

		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "key2 should have its own counter")
	})

	t.Run("reports missing and unexpiring keys", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		ttl, err := s.TTL(context.Background(), "rate:key1")
		require.NoError(t, err)
		assert.Equal(t, ratelimit.KeyMissing, ttl)

		_, _ = s.Incr(context.Background(), "rate:key1")

		ttl, err = s.TTL(context.Background(), "rate:key1")
		require.NoError(t, err)
		assert.Equal(t, ratelimit.NoExpiry, ttl)
	})

	t.Run("reports remaining lifetime", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Incr(context.Background(), "rate:key1")
		require.NoError(t, s.Expire(context.Background(), "rate:key1", time.Minute))

		ttl, err := s.TTL(context.Background(), "rate:key1")

		require.NoError(t, err)
		assert.Greater(t, ttl, 59*time.Second)
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("expire on a missing key is a no-op", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		require.NoError(t, s.Expire(context.Background(), "rate:key1", time.Minute))

		ttl, _ := s.TTL(context.Background(), "rate:key1")
		assert.Equal(t, ratelimit.KeyMissing, ttl)
	})

	t.Run("counter restarts after expiry", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Incr(context.Background(), "rate:key1")
		_, _ = s.Incr(context.Background(), "rate:key1")
		_ = s.Expire(context.Background(), "rate:key1", 30*time.Millisecond)

		time.Sleep(40 * time.Millisecond)

		count, err := s.Incr(context.Background(), "rate:key1")

		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "expired counter should restart")
	})
}
