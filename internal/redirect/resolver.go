package redirect

import (
	"context"
	"errors"
	"time"

	"github.com/serroba/scaleurl/internal/analytics"
	"github.com/serroba/scaleurl/internal/messaging"
	"github.com/serroba/scaleurl/internal/ratelimit"
	"github.com/serroba/scaleurl/internal/shortener"
	"go.uber.org/zap"
)

// Resolver turns a short code into its original URL on the redirect hot path.
//
// Only the Code Store is authoritative. The limiter, the cache and the visit
// queue fail open: their errors are logged and the redirect proceeds.
type Resolver struct {
	limiter ratelimit.Limiter
	cache   shortener.Cache
	store   shortener.Repository
	publish messaging.Publish[analytics.VisitEvent]
	logger  *zap.Logger
	now     func() time.Time
}

// NewResolver creates a new redirect resolver.
func NewResolver(
	limiter ratelimit.Limiter,
	cache shortener.Cache,
	store shortener.Repository,
	publish messaging.Publish[analytics.VisitEvent],
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		limiter: limiter,
		cache:   cache,
		store:   store,
		publish: publish,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve returns the original URL for code and records one visit.
//
// It returns shortener.ErrTooManyRequests when the code is over budget and
// shortener.ErrNotFound when no record exists; neither records a visit.
func (r *Resolver) Resolve(ctx context.Context, code shortener.Code) (string, error) {
	allowed, err := r.limiter.Allow(ctx, string(code))
	if err != nil {
		r.logger.Warn("rate limiter unavailable, allowing request",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}

	if !allowed {
		return "", shortener.ErrTooManyRequests
	}

	originalURL, err := r.cache.Get(ctx, code)
	if err == nil {
		r.recordVisit(code)

		return originalURL, nil
	}

	if !errors.Is(err, shortener.ErrCacheMiss) {
		r.logger.Warn("cache read failed, falling back to store",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}

	shortURL, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := r.cache.Set(ctx, code, shortURL.OriginalURL); err != nil {
		r.logger.Warn("failed to populate cache",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}

	r.recordVisit(code)

	return shortURL.OriginalURL, nil
}

// recordVisit enqueues a visit event. The publish call carries its own
// timeout, so a cancelled request does not withdraw the visit.
func (r *Resolver) recordVisit(code shortener.Code) {
	if err := r.publish(analytics.NewVisitEvent(string(code), r.now())); err != nil {
		r.logger.Error("failed to enqueue visit event",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}
}
