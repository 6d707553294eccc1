package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/scaleurl/internal/analytics"
	"github.com/serroba/scaleurl/internal/shortener"
	"go.uber.org/zap"
)

// AnalyticsHandler serves visit statistics.
type AnalyticsHandler struct {
	query  *analytics.Query
	logger *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(query *analytics.Query, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{query: query, logger: logger}
}

func (h *AnalyticsHandler) GetURLAnalytics(ctx context.Context, req *AnalyticsRequest) (*AnalyticsResponse, error) {
	shortURL, err := h.query.GetByCode(ctx, shortener.Code(req.ShortCode))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short url not found")
		}

		h.logger.Error("failed to load analytics", zap.String("code", req.ShortCode), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to load analytics")
	}

	resp := &AnalyticsResponse{}
	resp.Body.Success = true
	resp.Body.Analytics = toURLAnalytics(shortURL)

	return resp, nil
}

func (h *AnalyticsHandler) GetTopURLs(ctx context.Context, req *TopURLsRequest) (*TopURLsResponse, error) {
	top, err := h.query.GetTopN(ctx, req.Range, req.Limit)
	if err != nil {
		if errors.Is(err, shortener.ErrInvalidArgument) {
			return nil, huma.Error400BadRequest(err.Error())
		}

		h.logger.Error("failed to rank urls", zap.String("range", req.Range), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to load top urls")
	}

	resp := &TopURLsResponse{}
	resp.Body.Success = true
	resp.Body.Count = len(top)
	resp.Body.TopURLs = make([]URLAnalytics, 0, len(top))

	for i := range top {
		resp.Body.TopURLs = append(resp.Body.TopURLs, toURLAnalytics(&top[i]))
	}

	return resp, nil
}

func toURLAnalytics(s *shortener.ShortURL) URLAnalytics {
	return URLAnalytics{
		OriginalURL: s.OriginalURL,
		ShortCode:   string(s.Code),
		VisitCount:  s.VisitCount,
		CreatedAt:   s.CreatedAt,
	}
}
