package shortener

import (
	"context"
	"time"
)

// Repository is the system of record for short links.
type Repository interface {
	// Save inserts a new record. It returns ErrConflict when the code exists.
	Save(ctx context.Context, shortURL *ShortURL) error
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)
	// IncrementVisits atomically adds one to the visit counter.
	// It returns ErrNotFound when no record matches.
	IncrementVisits(ctx context.Context, code Code) error
	// TopByVisits returns records created in [from, to) ordered by visit count, highest first.
	TopByVisits(ctx context.Context, from, to time.Time, limit int) ([]ShortURL, error)
}

// Cache holds code to destination mappings in front of the Repository.
// Get returns ErrCacheMiss when the code is absent; transport failures wrap ErrUnavailable.
type Cache interface {
	Get(ctx context.Context, code Code) (string, error)
	Set(ctx context.Context, code Code, originalURL string) error
}
