package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkpulse/linkpulse/internal/messaging"
	"github.com/linkpulse/linkpulse/internal/shortener"
	"github.com/linkpulse/linkpulse/internal/visits"
	"go.uber.org/zap"
)

// URLHandler handles short URL creation and redirects.
type URLHandler struct {
	resolver     *shortener.Resolver
	publishVisit messaging.Publish[visits.Event]
	baseURL      string
	logger       *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	resolver *shortener.Resolver,
	publishVisit messaging.Publish[visits.Event],
	baseURL string,
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		resolver:     resolver,
		publishVisit: publishVisit,
		baseURL:      baseURL,
		logger:       logger,
	}
}

// CreateShortURL creates a mapping from the request body, using the
// caller's identity from the request metadata as the owner.
func (h *URLHandler) CreateShortURL(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	if err := validateLongURL(req.Body.LongURL); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	topic := shortener.Topic(req.Body.Topic)
	if !shortener.ValidTopic(topic) {
		return nil, huma.Error400BadRequest(
			"invalid topic: must be one of acquisition, activation, retention",
		)
	}

	meta := RequestMetaFromContext(ctx)

	mapping, err := h.resolver.CreateMapping(ctx, shortener.CreateParams{
		Owner:   meta.Identity,
		LongURL: req.Body.LongURL,
		Alias:   req.Body.CustomAlias,
		Topic:   topic,
	})
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrInvalidAlias):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, shortener.ErrAliasTaken):
			return nil, huma.Error409Conflict("Custom alias already in use")
		case errors.Is(err, shortener.ErrGenerationExhausted):
			return nil, huma.Error503ServiceUnavailable("could not allocate a short code, try again")
		default:
			h.logger.Error("failed to create mapping", zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to create short URL")
		}
	}

	resp := &ShortenResponse{}
	resp.Body.ShortURL = fmt.Sprintf("%s/%s", h.baseURL, mapping.ShortCode)
	resp.Body.CreatedAt = mapping.CreatedAt

	return resp, nil
}

// RedirectToURL resolves a short code and redirects to the long URL. The
// visit event is published best-effort; a publish failure never breaks
// the redirect.
func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	mapping, err := h.resolver.Resolve(ctx, req.Code)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("URL not found")
		}

		h.logger.Error("failed to resolve code", zap.String("code", req.Code), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to resolve short URL")
	}

	meta := RequestMetaFromContext(ctx)
	event := &visits.Event{
		MappingID: mapping.ID,
		ShortCode: mapping.ShortCode,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		VisitedAt: time.Now(),
	}

	if err := h.publishVisit(event); err != nil {
		h.logger.Error("failed to publish visit event",
			zap.String("code", mapping.ShortCode),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{
		Status: http.StatusFound,
	}
	resp.Headers.Location = mapping.LongURL

	return resp, nil
}

// validateLongURL requires an absolute http(s) URL.
func validateLongURL(raw string) error {
	if raw == "" {
		return errors.New("Long URL is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errors.New("Invalid URL format")
	}

	return nil
}
