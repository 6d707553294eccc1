package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/scaleurl/internal/shortener"
)

// RedisCache is a Redis implementation of shortener.Cache using string keys.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a new Redis-backed cache. A zero ttl keeps entries until evicted.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "url:",
		ttl:    ttl,
	}
}

func (r *RedisCache) Get(ctx context.Context, code shortener.Code) (string, error) {
	url, err := r.client.Get(ctx, r.prefix+string(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shortener.ErrCacheMiss
		}

		return "", fmt.Errorf("%w: cache get: %w", shortener.ErrUnavailable, err)
	}

	return url, nil
}

func (r *RedisCache) Set(ctx context.Context, code shortener.Code, originalURL string) error {
	if err := r.client.Set(ctx, r.prefix+string(code), originalURL, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: cache set: %w", shortener.ErrUnavailable, err)
	}

	return nil
}

// Compile-time check.
var _ shortener.Cache = (*RedisCache)(nil)
