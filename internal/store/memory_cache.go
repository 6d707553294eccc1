package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/serroba/scaleurl/internal/shortener"
)

// MemoryCache is an in-process shortener.Cache with optional expiry.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache. A zero ttl keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)

	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}

	return &MemoryCache{cache: gocache.New(expiration, cleanup)}
}

func (m *MemoryCache) Get(_ context.Context, code shortener.Code) (string, error) {
	v, ok := m.cache.Get(string(code))
	if !ok {
		return "", shortener.ErrCacheMiss
	}

	url, ok := v.(string)
	if !ok {
		return "", shortener.ErrCacheMiss
	}

	return url, nil
}

func (m *MemoryCache) Set(_ context.Context, code shortener.Code, originalURL string) error {
	m.cache.SetDefault(string(code), originalURL)

	return nil
}

// Len reports the number of cached entries, including expired ones not yet cleaned up.
func (m *MemoryCache) Len() int {
	return m.cache.ItemCount()
}

// Compile-time check.
var _ shortener.Cache = (*MemoryCache)(nil)
