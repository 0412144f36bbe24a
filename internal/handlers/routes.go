package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkpulse/linkpulse/internal/ratelimit"
)

// RegisterRoutes registers the URL and analytics routes. Creation is the
// only rate-limited operation; it opts in via operation metadata.
func RegisterRoutes(api huma.API, urls *URLHandler, stats *AnalyticsHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-short-url",
		Method:        http.MethodPost,
		Path:          "/api/shorten",
		Summary:       "Create short URL",
		Description:   "Creates a short URL from a custom alias or a generated code.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: true,
		},
	}, urls.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "get-overall-analytics",
		Method:      http.MethodGet,
		Path:        "/api/analytics/overall",
		Summary:     "Overall analytics for the caller",
		Tags:        []string{"Analytics"},
	}, stats.GetOverallAnalytics)

	huma.Register(api, huma.Operation{
		OperationID: "get-topic-analytics",
		Method:      http.MethodGet,
		Path:        "/api/analytics/topic/{topic}",
		Summary:     "Analytics for one campaign topic",
		Tags:        []string{"Analytics"},
	}, stats.GetTopicAnalytics)

	huma.Register(api, huma.Operation{
		OperationID: "get-location-analytics",
		Method:      http.MethodGet,
		Path:        "/api/analytics/location/{alias}",
		Summary:     "Location breakdown for one short URL",
		Tags:        []string{"Analytics"},
	}, stats.GetLocationAnalytics)

	huma.Register(api, huma.Operation{
		OperationID: "get-url-analytics",
		Method:      http.MethodGet,
		Path:        "/api/analytics/{alias}",
		Summary:     "Analytics for one short URL",
		Tags:        []string{"Analytics"},
	}, stats.GetURLAnalytics)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to the original URL",
		Tags:        []string{"URLs"},
	}, urls.RedirectToURL)
}
