package middleware

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id, accepted from the caller or generated.
const RequestIDHeader = "X-Request-ID"

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for logging.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// RequestContext is a middleware that adds a request id, client IP, user-agent,
// and referrer to the request context. The request id is echoed in the response.
func RequestContext(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requestID := ctx.Header(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		meta := RequestMeta{
			RequestID: requestID,
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		ctx.SetHeader(RequestIDHeader, requestID)
		ctx = huma.WithContext(ctx, ContextWithRequestMeta(ctx.Context(), meta))

		next(ctx)
	}
}
