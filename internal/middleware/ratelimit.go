package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/scaleurl/internal/ratelimit"
	"go.uber.org/zap"
)

// clientKeyPrefix namespaces per-client counters away from the per-code redirect counters.
const clientKeyPrefix = "client:"

// ClientRateLimiter returns a Huma middleware that limits each client on the
// operations that declare a ratelimit.EndpointConfig in their metadata.
//
// The key combines the client, the operation's route template and the window,
// so all requests to the same route share one counter per client. Store
// failures let the request through.
func ClientRateLimiter(
	api huma.API,
	store ratelimit.Store,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg == nil || cfg.Disabled || cfg.Limit <= 0 {
			next(ctx)

			return
		}

		path := getOperationPath(ctx)
		key := fmt.Sprintf("%s:%s:%d", clientKey(ctx), path, cfg.Window.Milliseconds())
		limiter := ratelimit.NewFixedWindowLimiter(store, cfg.Limit, cfg.Window, clientKeyPrefix)

		allowed, err := limiter.Allow(ctx.Context(), key)
		if err != nil {
			logger.Warn("client rate limit check failed, allowing request",
				zap.String("path", path),
				zap.Error(err),
			)
		}

		if !allowed {
			logger.Warn("client rate limit exceeded",
				zap.String("path", path),
				zap.String("method", ctx.Method()),
				zap.Int64("max", cfg.Limit),
				zap.Duration("window", cfg.Window),
				zap.String("client_ip", clientIP(ctx)),
			)

			msg := fmt.Sprintf("rate limit exceeded: %d requests per %s", cfg.Limit, cfg.Window)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)

			return
		}

		next(ctx)
	}
}

// getOperationPath extracts the path from the operation, if available.
func getOperationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

// clientKey generates a unique key for rate limiting based on IP and User-Agent.
func clientKey(ctx huma.Context) string {
	ip := clientIP(ctx)
	ua := ctx.Header("User-Agent")

	hash := sha256.Sum256([]byte(ip + "|" + ua))

	return hex.EncodeToString(hash[:])
}

// clientIP extracts the client IP from the request, considering proxies.
func clientIP(ctx huma.Context) string {
	// X-Forwarded-For may carry a chain; the first entry is the client.
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	addr := ctx.RemoteAddr()
	if addr == "" {
		addr = ctx.Host()
	}

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
