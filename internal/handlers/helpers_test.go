package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/scaleurl/internal/analytics"
	"github.com/serroba/scaleurl/internal/handlers"
	"github.com/serroba/scaleurl/internal/messaging"
	"github.com/serroba/scaleurl/internal/middleware"
	"github.com/serroba/scaleurl/internal/ratelimit"
	"github.com/serroba/scaleurl/internal/redirect"
	"github.com/serroba/scaleurl/internal/shortener"
	"github.com/serroba/scaleurl/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testBaseURL = "http://ScaleURL"
	testURL     = "https://example.com/very/long/path"
)

type testServer struct {
	router *chi.Mux
	store  shortener.Repository
	visits int
}

type serverOption func(*serverConfig)

type serverConfig struct {
	store shortener.Repository
	limit int64
	now   func() time.Time
}

func withStore(s shortener.Repository) serverOption {
	return func(c *serverConfig) { c.store = s }
}

func withRedirectLimit(limit int64) serverOption {
	return func(c *serverConfig) { c.limit = limit }
}

func withClock(now func() time.Time) serverOption {
	return func(c *serverConfig) { c.now = now }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg := serverConfig{
		store: store.NewMemoryStore(),
		limit: ratelimit.DefaultLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv := &testServer{store: cfg.store}

	var publish messaging.Publish[analytics.VisitEvent] = func(_ *analytics.VisitEvent) error {
		srv.visits++

		return nil
	}

	logger := zap.NewNop()
	cache := store.NewMemoryCache(time.Minute)
	codes := 0
	creator := shortener.NewCreator(cfg.store, cache, func() string {
		codes++

		return fmt.Sprintf("gen%d", codes)
	}, logger)
	limiter := ratelimit.NewFixedWindowLimiter(
		store.NewRateLimitMemoryStore(), cfg.limit, ratelimit.DefaultWindow, "rate:")
	resolver := redirect.NewResolver(limiter, cache, cfg.store, publish, logger)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestContext(api))
	api.UseMiddleware(middleware.ClientRateLimiter(api, store.NewRateLimitMemoryStore(), logger))

	handlers.RegisterRoutes(api,
		handlers.NewURLHandler(creator, resolver, testBaseURL, logger),
		handlers.NewAnalyticsHandler(analytics.NewQueryWithClock(cfg.store, cfg.now), logger),
	)

	srv.router = router

	return srv
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

func (s *testServer) seed(t *testing.T, code string, createdAt time.Time, visits int) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, s.store.Save(ctx, &shortener.ShortURL{
		Code:        shortener.Code(code),
		OriginalURL: "https://example.com/" + code,
		CreatedAt:   createdAt,
	}))

	for range visits {
		require.NoError(t, s.store.IncrementVisits(ctx, shortener.Code(code)))
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))

	return out
}

