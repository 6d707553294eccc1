package analytics

import (
	"context"
	"time"

	"github.com/serroba/scaleurl/internal/shortener"
)

// DefaultTopN is the ranking size used when none is requested.
const DefaultTopN = 10

// Query answers read-only analytics questions from the Code Store.
type Query struct {
	store Reader
	now   func() time.Time
}

// NewQuery creates a new analytics query service using the local clock.
func NewQuery(store Reader) *Query {
	return NewQueryWithClock(store, time.Now)
}

// NewQueryWithClock creates a query service with a custom clock.
func NewQueryWithClock(store Reader, now func() time.Time) *Query {
	return &Query{store: store, now: now}
}

// GetByCode returns the record for code, or shortener.ErrNotFound.
func (q *Query) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	return q.store.GetByCode(ctx, code)
}

// GetTopN returns up to n records created in the named range, most visited
// first. Order among equal visit counts is left to the store. A non-positive
// n means DefaultTopN.
func (q *Query) GetTopN(ctx context.Context, rangeName string, n int) ([]shortener.ShortURL, error) {
	r, err := ParseTimeRange(rangeName, q.now())
	if err != nil {
		return nil, err
	}

	if n <= 0 {
		n = DefaultTopN
	}

	return q.store.TopByVisits(ctx, r.From, r.To, n)
}
