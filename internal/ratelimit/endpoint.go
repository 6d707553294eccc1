package ratelimit

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig defines a per-client budget for a single operation.
// Operations without a config are not limited per client.
type EndpointConfig struct {
	Limit  int64
	Window time.Duration

	// Disabled skips rate limiting entirely for this endpoint.
	Disabled bool
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
