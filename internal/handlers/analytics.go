package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkpulse/linkpulse/internal/analytics"
	"github.com/linkpulse/linkpulse/internal/shortener"
	"go.uber.org/zap"
)

// AnalyticsHandler serves the read-side analytics endpoints. Reads are
// scoped to the caller's identity; a foreign or unknown alias is
// indistinguishable from a missing one.
type AnalyticsHandler struct {
	mappings   shortener.MappingStore
	aggregator *analytics.Aggregator
	logger     *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(
	mappings shortener.MappingStore,
	aggregator *analytics.Aggregator,
	logger *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		mappings:   mappings,
		aggregator: aggregator,
		logger:     logger,
	}
}

// GetURLAnalytics returns the summary for one of the caller's URLs.
func (h *AnalyticsHandler) GetURLAnalytics(
	ctx context.Context, req *AliasRequest,
) (*URLAnalyticsResponse, error) {
	mapping, err := h.ownedMapping(ctx, req.Alias)
	if err != nil {
		return nil, err
	}

	summary, err := h.aggregator.URLAnalytics(ctx, mapping)
	if err != nil {
		h.logger.Error("failed to aggregate url analytics",
			zap.String("code", mapping.ShortCode),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("Error fetching analytics")
	}

	return &URLAnalyticsResponse{Body: *summary}, nil
}

// GetTopicAnalytics returns the summary for the caller's URLs under one
// topic.
func (h *AnalyticsHandler) GetTopicAnalytics(
	ctx context.Context, req *TopicRequest,
) (*TopicAnalyticsResponse, error) {
	topic := shortener.Topic(req.Topic)
	if topic == "" || !shortener.ValidTopic(topic) {
		return nil, huma.Error400BadRequest(
			"invalid topic: must be one of acquisition, activation, retention",
		)
	}

	meta := RequestMetaFromContext(ctx)

	summary, err := h.aggregator.TopicAnalytics(ctx, meta.Identity, topic)
	if err != nil {
		h.logger.Error("failed to aggregate topic analytics",
			zap.String("topic", req.Topic),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("Error fetching topic analytics")
	}

	return &TopicAnalyticsResponse{Body: *summary}, nil
}

// GetOverallAnalytics returns the summary across every URL of the
// caller.
func (h *AnalyticsHandler) GetOverallAnalytics(
	ctx context.Context, _ *struct{},
) (*OverallAnalyticsResponse, error) {
	meta := RequestMetaFromContext(ctx)

	summary, err := h.aggregator.OverallAnalytics(ctx, meta.Identity)
	if err != nil {
		h.logger.Error("failed to aggregate overall analytics", zap.Error(err))

		return nil, huma.Error500InternalServerError("Error fetching overall analytics")
	}

	return &OverallAnalyticsResponse{Body: *summary}, nil
}

// GetLocationAnalytics returns the location breakdown for one of the
// caller's URLs.
func (h *AnalyticsHandler) GetLocationAnalytics(
	ctx context.Context, req *AliasRequest,
) (*LocationAnalyticsResponse, error) {
	mapping, err := h.ownedMapping(ctx, req.Alias)
	if err != nil {
		return nil, err
	}

	summary, err := h.aggregator.LocationAnalytics(ctx, mapping)
	if err != nil {
		h.logger.Error("failed to aggregate location analytics",
			zap.String("code", mapping.ShortCode),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("Error fetching location analytics")
	}

	return &LocationAnalyticsResponse{Body: *summary}, nil
}

func (h *AnalyticsHandler) ownedMapping(ctx context.Context, alias string) (*shortener.Mapping, error) {
	meta := RequestMetaFromContext(ctx)

	mapping, err := h.mappings.FindByCode(ctx, alias)
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("URL not found")
		}

		h.logger.Error("failed to look up mapping", zap.String("alias", alias), zap.Error(err))

		return nil, huma.Error500InternalServerError("Error fetching analytics")
	}

	if mapping.Owner != meta.Identity {
		return nil, huma.Error404NotFound("URL not found")
	}

	return mapping, nil
}
