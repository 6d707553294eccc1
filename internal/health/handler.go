package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// checkTimeout bounds each dependency ping.
const checkTimeout = 2 * time.Second

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts a redis client to the Checker interface.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler handles health check operations.
//
// A nil checker reports its component as disabled, for deployments that run
// without that dependency.
type Handler struct {
	redis    Checker
	database Checker
}

// NewHandler creates a new health handler.
func NewHandler(redis, database Checker) *Handler {
	return &Handler{redis: redis, database: database}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status   string `json:"status"`
		Redis    string `json:"redis"`
		Database string `json:"database"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Redis = probe(ctx, h.redis)
	resp.Body.Database = probe(ctx, h.database)

	if resp.Body.Redis == statusUnhealthy || resp.Body.Database == statusUnhealthy {
		resp.Body.Status = "degraded"
	}

	return resp, nil
}

func probe(ctx context.Context, checker Checker) string {
	if checker == nil {
		return statusDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := checker.Ping(ctx); err != nil {
		return statusUnhealthy
	}

	return statusHealthy
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
