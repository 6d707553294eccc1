package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/scaleurl/internal/middleware"
	"github.com/serroba/scaleurl/internal/redirect"
	"github.com/serroba/scaleurl/internal/shortener"
	"go.uber.org/zap"
)

// URLHandler handles URL creation and redirects.
type URLHandler struct {
	creator  *shortener.Creator
	resolver *redirect.Resolver
	baseURL  string
	logger   *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	creator *shortener.Creator,
	resolver *redirect.Resolver,
	baseURL string,
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		creator:  creator,
		resolver: resolver,
		baseURL:  baseURL,
		logger:   logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	if req.Body.OriginalURL == "" {
		return nil, huma.Error400BadRequest("Original URL is required")
	}

	shortURL, err := h.creator.Create(ctx, req.Body.OriginalURL, req.Body.CustomCode)
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrInvalidArgument):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, shortener.ErrConflict):
			return nil, huma.Error409Conflict("short code already in use")
		default:
			h.logger.Error("failed to create short url",
				zap.String("request_id", middleware.RequestMetaFromContext(ctx).RequestID),
				zap.Error(err),
			)

			return nil, huma.Error500InternalServerError("failed to save url")
		}
	}

	fullShortURL := fmt.Sprintf("%s/%s", h.baseURL, shortURL.Code)

	resp := &CreateShortURLResponse{}
	resp.Location = fullShortURL
	resp.Body.Message = "Short URL created successfully"
	resp.Body.ShortURL = fullShortURL
	resp.Body.ShortCode = string(shortURL.Code)
	resp.Body.OriginalURL = shortURL.OriginalURL

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	originalURL, err := h.resolver.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrNotFound):
			return nil, huma.Error404NotFound("short url not found")
		case errors.Is(err, shortener.ErrTooManyRequests):
			return nil, huma.Error429TooManyRequests("too many requests for this short url")
		default:
			h.logger.Error("failed to resolve short url",
				zap.String("code", req.Code),
				zap.String("request_id", middleware.RequestMetaFromContext(ctx).RequestID),
				zap.Error(err),
			)

			return nil, huma.Error500InternalServerError("failed to get url")
		}
	}

	return &RedirectResponse{
		Status:   http.StatusFound,
		Location: originalURL,
	}, nil
}
