// Package analytics computes read-side visit summaries with cache-aside
// result caching.
package analytics

import "time"

// DailyClicks is one bucket of a daily click histogram. Days without
// visits are simply absent, not zero-filled.
type DailyClicks struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// OSStat is the per-OS breakdown entry.
type OSStat struct {
	OSName       string `json:"osName"`
	UniqueClicks int64  `json:"uniqueClicks"`
	UniqueUsers  int64  `json:"uniqueUsers"`
}

// DeviceStat is the per-device breakdown entry.
type DeviceStat struct {
	DeviceName   string `json:"deviceName"`
	UniqueClicks int64  `json:"uniqueClicks"`
	UniqueUsers  int64  `json:"uniqueUsers"`
}

// URLSummary aggregates all visits for one or more mappings. Unique
// counts are distinct raw client addresses, nothing more.
type URLSummary struct {
	TotalClicks  int64         `json:"totalClicks"`
	UniqueUsers  int64         `json:"uniqueUsers"`
	ClicksByDate []DailyClicks `json:"clicksByDate"`
	OSType       []OSStat      `json:"osType"`
	DeviceType   []DeviceStat  `json:"deviceType"`
}

// MappingStat is the per-mapping row of a topic summary.
type MappingStat struct {
	ShortCode   string `json:"shortUrl"`
	TotalClicks int64  `json:"totalClicks"`
	UniqueUsers int64  `json:"uniqueUsers"`
}

// TopicSummary aggregates visits across all mappings an owner filed
// under one topic.
type TopicSummary struct {
	TotalClicks  int64         `json:"totalClicks"`
	UniqueUsers  int64         `json:"uniqueUsers"`
	ClicksByDate []DailyClicks `json:"clicksByDate"`
	URLs         []MappingStat `json:"urls"`
}

// OverallSummary aggregates visits across every mapping of an owner.
type OverallSummary struct {
	TotalURLs int64 `json:"totalUrls"`
	URLSummary
}

// LocationStat is one (country, region, city) group of visits.
type LocationStat struct {
	Country     string    `json:"country"`
	Region      string    `json:"region,omitempty"`
	City        string    `json:"city,omitempty"`
	VisitCount  int64     `json:"visitCount"`
	UniqueUsers int64     `json:"uniqueUsers"`
	LastVisit   time.Time `json:"lastVisit"`
}

// LocationSummary groups a mapping's visits by location, ordered by
// visit count descending.
type LocationSummary struct {
	Locations []LocationStat `json:"locations"`
}
