package analytics

import (
	"context"
	"time"

	"github.com/serroba/scaleurl/internal/shortener"
)

// Counter applies visit increments. shortener.Repository satisfies it.
type Counter interface {
	IncrementVisits(ctx context.Context, code shortener.Code) error
}

// Reader is the read side of the Code Store used by queries. shortener.Repository satisfies it.
type Reader interface {
	GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error)
	TopByVisits(ctx context.Context, from, to time.Time, limit int) ([]shortener.ShortURL, error)
}
