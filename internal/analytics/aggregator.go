package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/linkpulse/linkpulse/internal/cache"
	"github.com/linkpulse/linkpulse/internal/shortener"
	"github.com/linkpulse/linkpulse/internal/visits"
	"go.uber.org/zap"
)

// historyDays bounds the daily click histogram of URL and overall
// summaries.
const historyDays = 7

// DefaultSummaryTTL is how long cached summaries stay valid when no new
// visit invalidates them first.
const DefaultSummaryTTL = 5 * time.Minute

// Aggregator computes visit summaries from the stores. URL and location
// summaries are cached per short code; the tracker invalidates those
// keys on every new visit.
type Aggregator struct {
	mappings shortener.MappingStore
	visits   visits.Store
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewAggregator creates a new analytics aggregator.
func NewAggregator(
	mappings shortener.MappingStore,
	visitStore visits.Store,
	c cache.Cache,
	ttl time.Duration,
	logger *zap.Logger,
) *Aggregator {
	return &Aggregator{
		mappings: mappings,
		visits:   visitStore,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// URLAnalytics summarizes all visits for one mapping. The result is
// served from cache when a fresh snapshot exists.
func (a *Aggregator) URLAnalytics(ctx context.Context, mapping *shortener.Mapping) (*URLSummary, error) {
	key := cache.URLSummaryKey(mapping.ShortCode)

	var cached URLSummary
	if a.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	summary, err := a.summarize(ctx, []string{mapping.ID}, true)
	if err != nil {
		return nil, err
	}

	a.toCache(ctx, key, summary)

	return summary, nil
}

// TopicAnalytics summarizes visits across the owner's mappings filed
// under the given topic, with a per-mapping breakdown.
func (a *Aggregator) TopicAnalytics(
	ctx context.Context, owner string, topic shortener.Topic,
) (*TopicSummary, error) {
	mappings, err := a.mappings.ListByOwnerAndTopic(ctx, owner, topic)
	if err != nil {
		return nil, err
	}

	ids := mappingIDs(mappings)

	filter := visits.Filter{MappingIDs: ids}

	total, err := a.visits.CountVisits(ctx, filter)
	if err != nil {
		return nil, err
	}

	unique, err := a.visits.CountDistinctIPs(ctx, filter)
	if err != nil {
		return nil, err
	}

	daily, err := a.visits.CountByDay(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := &TopicSummary{
		TotalClicks:  total,
		UniqueUsers:  unique,
		ClicksByDate: dailyClicks(daily),
		URLs:         make([]MappingStat, 0, len(mappings)),
	}

	for _, mapping := range mappings {
		single := visits.Filter{MappingIDs: []string{mapping.ID}}

		clicks, err := a.visits.CountVisits(ctx, single)
		if err != nil {
			return nil, err
		}

		uniques, err := a.visits.CountDistinctIPs(ctx, single)
		if err != nil {
			return nil, err
		}

		summary.URLs = append(summary.URLs, MappingStat{
			ShortCode:   mapping.ShortCode,
			TotalClicks: clicks,
			UniqueUsers: uniques,
		})
	}

	return summary, nil
}

// OverallAnalytics summarizes visits across every mapping of the owner.
func (a *Aggregator) OverallAnalytics(ctx context.Context, owner string) (*OverallSummary, error) {
	mappings, err := a.mappings.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	summary, err := a.summarize(ctx, mappingIDs(mappings), true)
	if err != nil {
		return nil, err
	}

	return &OverallSummary{
		TotalURLs:  int64(len(mappings)),
		URLSummary: *summary,
	}, nil
}

// LocationAnalytics groups the mapping's visits by location, cached like
// the URL summary.
func (a *Aggregator) LocationAnalytics(
	ctx context.Context, mapping *shortener.Mapping,
) (*LocationSummary, error) {
	key := cache.LocationSummaryKey(mapping.ShortCode)

	var cached LocationSummary
	if a.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	groups, err := a.visits.GroupByLocation(ctx, visits.Filter{MappingIDs: []string{mapping.ID}})
	if err != nil {
		return nil, err
	}

	summary := &LocationSummary{Locations: make([]LocationStat, 0, len(groups))}

	for _, group := range groups {
		summary.Locations = append(summary.Locations, LocationStat{
			Country:     group.Country,
			Region:      group.Region,
			City:        group.City,
			VisitCount:  group.Clicks,
			UniqueUsers: group.UniqueIPs,
			LastVisit:   group.LastVisit,
		})
	}

	a.toCache(ctx, key, summary)

	return summary, nil
}

func (a *Aggregator) summarize(ctx context.Context, ids []string, recentDaily bool) (*URLSummary, error) {
	filter := visits.Filter{MappingIDs: ids}

	total, err := a.visits.CountVisits(ctx, filter)
	if err != nil {
		return nil, err
	}

	unique, err := a.visits.CountDistinctIPs(ctx, filter)
	if err != nil {
		return nil, err
	}

	dailyFilter := filter
	if recentDaily {
		dailyFilter.Since = a.now().AddDate(0, 0, -historyDays)
	}

	daily, err := a.visits.CountByDay(ctx, dailyFilter)
	if err != nil {
		return nil, err
	}

	byOS, err := a.visits.CountByField(ctx, filter, visits.FieldOS)
	if err != nil {
		return nil, err
	}

	byDevice, err := a.visits.CountByField(ctx, filter, visits.FieldDevice)
	if err != nil {
		return nil, err
	}

	summary := &URLSummary{
		TotalClicks:  total,
		UniqueUsers:  unique,
		ClicksByDate: dailyClicks(daily),
		OSType:       make([]OSStat, 0, len(byOS)),
		DeviceType:   make([]DeviceStat, 0, len(byDevice)),
	}

	for _, fc := range byOS {
		summary.OSType = append(summary.OSType, OSStat{
			OSName:       fc.Value,
			UniqueClicks: fc.Clicks,
			UniqueUsers:  fc.UniqueIPs,
		})
	}

	for _, fc := range byDevice {
		summary.DeviceType = append(summary.DeviceType, DeviceStat{
			DeviceName:   fc.Value,
			UniqueClicks: fc.Clicks,
			UniqueUsers:  fc.UniqueIPs,
		})
	}

	return summary, nil
}

// fromCache loads a cached summary into out, reporting whether it hit.
// Any cache or decode failure counts as a miss.
func (a *Aggregator) fromCache(ctx context.Context, key string, out any) bool {
	payload, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			a.logger.Warn("summary cache lookup failed", zap.String("key", key), zap.Error(err))
		}

		return false
	}

	return json.Unmarshal(payload, out) == nil
}

func (a *Aggregator) toCache(ctx context.Context, key string, summary any) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}

	if err := a.cache.Set(ctx, key, payload, a.ttl); err != nil {
		a.logger.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func dailyClicks(daily []visits.DailyCount) []DailyClicks {
	clicks := make([]DailyClicks, 0, len(daily))

	for _, dc := range daily {
		clicks = append(clicks, DailyClicks{Date: dc.Date, Clicks: dc.Clicks})
	}

	return clicks
}

func mappingIDs(mappings []shortener.Mapping) []string {
	ids := make([]string, 0, len(mappings))

	for _, mapping := range mappings {
		ids = append(ids, mapping.ID)
	}

	return ids
}
