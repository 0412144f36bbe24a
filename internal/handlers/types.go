package handlers

import (
	"time"

	"github.com/linkpulse/linkpulse/internal/analytics"
)

// ShortenRequest is the request body for creating a short URL.
type ShortenRequest struct {
	Body struct {
		LongURL     string `doc:"The URL to shorten"                example:"https://example.com/very/long/path" json:"longUrl"`
		CustomAlias string `doc:"Optional custom alias (3-20 chars)" example:"my-url"                             json:"customAlias,omitempty"`
		Topic       string `doc:"Optional campaign topic"            enum:"acquisition,activation,retention"      json:"topic,omitempty"`
	}
}

// ShortenResponse is the response for a successfully created short URL.
type ShortenResponse struct {
	Body struct {
		ShortURL  string    `doc:"The full short URL" example:"http://localhost:8888/my-url" json:"shortUrl"`
		CreatedAt time.Time `doc:"Creation timestamp" json:"createdAt"`
	}
}

// RedirectRequest is the request for redirecting a short code.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"abc123ef" path:"code"`
}

// RedirectResponse redirects the client to the mapped long URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The original URL" header:"Location"`
	}
}

// AliasRequest addresses one short URL by its code for analytics reads.
type AliasRequest struct {
	Alias string `doc:"The short code" example:"my-url" path:"alias"`
}

// TopicRequest addresses a campaign topic for analytics reads.
type TopicRequest struct {
	Topic string `doc:"The campaign topic" enum:"acquisition,activation,retention" path:"topic"`
}

// URLAnalyticsResponse carries the per-URL summary.
type URLAnalyticsResponse struct {
	Body analytics.URLSummary
}

// TopicAnalyticsResponse carries the per-topic summary.
type TopicAnalyticsResponse struct {
	Body analytics.TopicSummary
}

// OverallAnalyticsResponse carries the per-owner summary.
type OverallAnalyticsResponse struct {
	Body analytics.OverallSummary
}

// LocationAnalyticsResponse carries the per-URL location summary.
type LocationAnalyticsResponse struct {
	Body analytics.LocationSummary
}
