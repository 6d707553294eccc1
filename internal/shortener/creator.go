package shortener

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// CodeGenerator generates unique short codes.
type CodeGenerator func() string

// generatedCodeAttempts bounds retries when a generated code collides with an existing one.
const generatedCodeAttempts = 3

// Creator registers new short links and writes them through to the cache.
type Creator struct {
	store        Repository
	cache        Cache
	generateCode CodeGenerator
	logger       *zap.Logger
}

// NewCreator creates a new short link creator.
func NewCreator(store Repository, cache Cache, generator CodeGenerator, logger *zap.Logger) *Creator {
	return &Creator{
		store:        store,
		cache:        cache,
		generateCode: generator,
		logger:       logger,
	}
}

// Create validates originalURL and stores it under customCode, or under a generated
// code when customCode is empty. A taken custom code returns ErrConflict.
func (c *Creator) Create(ctx context.Context, originalURL, customCode string) (*ShortURL, error) {
	if err := ValidateURL(originalURL); err != nil {
		return nil, err
	}

	if customCode != "" {
		if err := ValidateCode(customCode); err != nil {
			return nil, err
		}

		return c.create(ctx, Code(customCode), originalURL)
	}

	var err error

	for range generatedCodeAttempts {
		var shortURL *ShortURL

		shortURL, err = c.create(ctx, Code(c.generateCode()), originalURL)
		if !errors.Is(err, ErrConflict) {
			return shortURL, err
		}

		c.logger.Warn("generated code collided, retrying")
	}

	return nil, err
}

func (c *Creator) create(ctx context.Context, code Code, originalURL string) (*ShortURL, error) {
	_, err := c.store.GetByCode(ctx, code)
	if err == nil {
		return nil, ErrConflict
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	shortURL := &ShortURL{
		Code:        code,
		OriginalURL: originalURL,
		CreatedAt:   time.Now(),
	}

	// Save still reports ErrConflict when a concurrent create wins the race.
	if err := c.store.Save(ctx, shortURL); err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, shortURL.Code, shortURL.OriginalURL); err != nil {
		c.logger.Warn("failed to cache new short url",
			zap.String("code", string(shortURL.Code)),
			zap.Error(err),
		)
	}

	return shortURL, nil
}
