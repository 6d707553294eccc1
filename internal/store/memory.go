package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serroba/scaleurl/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	urls  map[shortener.Code]*shortener.ShortURL
	order []shortener.Code // insertion order, used as the tie-break for rankings
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		urls: make(map[shortener.Code]*shortener.ShortURL),
	}
}

func (m *MemoryStore) Save(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.urls[shortURL.Code]; ok {
		return shortener.ErrConflict
	}

	stored := *shortURL
	m.urls[shortURL.Code] = &stored
	m.order = append(m.order, shortURL.Code)

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	found := *url

	return &found, nil
}

func (m *MemoryStore) IncrementVisits(_ context.Context, code shortener.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	url, ok := m.urls[code]
	if !ok {
		return shortener.ErrNotFound
	}

	url.VisitCount++

	return nil
}

func (m *MemoryStore) TopByVisits(
	_ context.Context, from, to time.Time, limit int,
) ([]shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]shortener.ShortURL, 0)

	for _, code := range m.order {
		url := m.urls[code]
		if url.CreatedAt.Before(from) || !url.CreatedAt.Before(to) {
			continue
		}

		matched = append(matched, *url)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].VisitCount > matched[j].VisitCount
	})

	if limit >= 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
