package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/scaleurl/internal/ratelimit"
)

// CreateLimit is the per-client budget for creating short URLs.
var CreateLimit = ratelimit.EndpointConfig{Limit: 10, Window: time.Minute}

// RegisterRoutes registers the URL and analytics routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler, analyticsHandler *AnalyticsHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-short-url",
		Method:        http.MethodPost,
		Path:          "/api/v1/url/shorten",
		Summary:       "Create short URL",
		Description:   "Creates a short URL with a generated or custom code.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: CreateLimit,
		},
	}, urlHandler.CreateShortURL)

	// Redirects are limited per short code by the resolver, not per client.
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/api/v1/url/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, urlHandler.RedirectToURL)

	huma.Register(api, huma.Operation{
		OperationID: "url-analytics",
		Method:      http.MethodGet,
		Path:        "/analytics/{shortCode}",
		Summary:     "Get URL analytics",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.GetURLAnalytics)

	huma.Register(api, huma.Operation{
		OperationID: "top-urls",
		Method:      http.MethodGet,
		Path:        "/analytics/top/{range}",
		Summary:     "Get most visited URLs",
		Description: "Ranks URLs created in the given range by visit count.",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.GetTopURLs)
}
