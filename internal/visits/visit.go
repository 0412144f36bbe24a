// Package visits holds the visit-telemetry pipeline: the event published
// on every redirect, best-effort enrichment (device and geolocation), and
// the tracker that persists enriched records off the response path.
package visits

import (
	"context"
	"time"
)

// TopicVisitRecorded is the messaging topic for redirect visit events.
const TopicVisitRecorded = "visit.recorded"

// Unknown is the sentinel value for device fields that could not be
// derived from the user agent.
const Unknown = "unknown"

// Event is published by the redirect handler for every resolved code. It
// carries only raw request attributes; enrichment happens in the tracker.
type Event struct {
	MappingID string    `json:"mappingId"`
	ShortCode string    `json:"shortCode"`
	ClientIP  string    `json:"clientIp,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	VisitedAt time.Time `json:"visitedAt"`
}

// Location is coarse geolocation derived from a client address.
type Location struct {
	Country   string  `json:"country"`
	Region    string  `json:"region"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Record is one persisted visit. Records are immutable and accumulate
// indefinitely.
type Record struct {
	MappingID string
	Timestamp time.Time
	ClientIP  string
	UserAgent string
	Device    string
	OS        string
	Browser   string
	Location  *Location
}

// Field names a visit attribute that aggregations can group by.
type Field string

const (
	FieldOS     Field = "os"
	FieldDevice Field = "device"
)

// Filter selects visits for aggregation. A zero Since means unbounded.
type Filter struct {
	MappingIDs []string
	Since      time.Time
}

// FieldCount is one group of a per-field breakdown.
type FieldCount struct {
	Value     string
	Clicks    int64
	UniqueIPs int64
}

// DailyCount is one bucket of a daily click histogram. Date is a
// calendar date formatted as YYYY-MM-DD.
type DailyCount struct {
	Date   string
	Clicks int64
}

// LocationGroup is one (country, region, city) group of visits.
type LocationGroup struct {
	Country   string
	Region    string
	City      string
	Clicks    int64
	UniqueIPs int64
	LastVisit time.Time
}

// Store persists visit records and answers the aggregate queries the
// analytics service is built on.
type Store interface {
	InsertVisit(ctx context.Context, record *Record) error
	CountVisits(ctx context.Context, filter Filter) (int64, error)
	CountDistinctIPs(ctx context.Context, filter Filter) (int64, error)
	CountByField(ctx context.Context, filter Filter, field Field) ([]FieldCount, error)
	CountByDay(ctx context.Context, filter Filter) ([]DailyCount, error)
	GroupByLocation(ctx context.Context, filter Filter) ([]LocationGroup, error)
}
