package analytics_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/linkpulse/linkpulse/internal/analytics"
	"github.com/linkpulse/linkpulse/internal/cache"
	"github.com/linkpulse/linkpulse/internal/shortener"
	"github.com/linkpulse/linkpulse/internal/store"
	"github.com/linkpulse/linkpulse/internal/visits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingVisitStore counts CountVisits calls to observe cache hits.
type countingVisitStore struct {
	visits.Store

	mu     sync.Mutex
	counts int
}

func (s *countingVisitStore) CountVisits(ctx context.Context, filter visits.Filter) (int64, error) {
	s.mu.Lock()
	s.counts++
	s.mu.Unlock()

	return s.Store.CountVisits(ctx, filter)
}

func seedMapping(t *testing.T, s *store.MemoryStore, id, owner, code string, topic shortener.Topic) *shortener.Mapping {
	t.Helper()

	mapping := &shortener.Mapping{
		ID:        id,
		Owner:     owner,
		LongURL:   "https://example.com/" + code,
		ShortCode: code,
		Topic:     topic,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.Insert(context.Background(), mapping))

	return mapping
}

func seedVisit(t *testing.T, s *store.MemoryStore, mappingID, ip, device, osName string, at time.Time) {
	t.Helper()

	require.NoError(t, s.InsertVisit(context.Background(), &visits.Record{
		MappingID: mappingID,
		Timestamp: at,
		ClientIP:  ip,
		Device:    device,
		OS:        osName,
	}))
}

func TestURLAnalytics(t *testing.T) {
	ctx := context.Background()

	t.Run("summarizes visits for one mapping", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		mapping := seedMapping(t, memStore, "m1", "user@example.com", "my-url", "")
		seedVisit(t, memStore, "m1", "203.0.113.9", "desktop", "Windows", time.Now())
		seedVisit(t, memStore, "m1", "203.0.113.10", "mobile", "iOS", time.Now())
		seedVisit(t, memStore, "m1", "203.0.113.10", "mobile", "iOS", time.Now())

		aggregator := analytics.NewAggregator(
			memStore, memStore, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		summary, err := aggregator.URLAnalytics(ctx, mapping)

		require.NoError(t, err)
		assert.Equal(t, int64(3), summary.TotalClicks)
		assert.Equal(t, int64(2), summary.UniqueUsers)

		require.Len(t, summary.ClicksByDate, 1)
		assert.Equal(t, time.Now().Format("2006-01-02"), summary.ClicksByDate[0].Date)
		assert.Equal(t, int64(3), summary.ClicksByDate[0].Clicks)

		require.Len(t, summary.OSType, 2)
		assert.Equal(t, "Windows", summary.OSType[0].OSName)
		assert.Equal(t, int64(1), summary.OSType[0].UniqueClicks)
		assert.Equal(t, "iOS", summary.OSType[1].OSName)
		assert.Equal(t, int64(2), summary.OSType[1].UniqueClicks)
		assert.Equal(t, int64(1), summary.OSType[1].UniqueUsers)

		require.Len(t, summary.DeviceType, 2)
	})

	t.Run("daily histogram is bounded, totals are not", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		mapping := seedMapping(t, memStore, "m1", "user@example.com", "my-url", "")
		seedVisit(t, memStore, "m1", "203.0.113.9", "desktop", "Windows", time.Now())
		seedVisit(t, memStore, "m1", "203.0.113.9", "desktop", "Windows", time.Now().AddDate(0, 0, -30))

		aggregator := analytics.NewAggregator(
			memStore, memStore, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		summary, err := aggregator.URLAnalytics(ctx, mapping)

		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.TotalClicks)
		assert.Len(t, summary.ClicksByDate, 1)
	})

	t.Run("serves repeat reads from cache", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		mapping := seedMapping(t, memStore, "m1", "user@example.com", "my-url", "")
		seedVisit(t, memStore, "m1", "203.0.113.9", "desktop", "Windows", time.Now())

		counting := &countingVisitStore{Store: memStore}
		aggregator := analytics.NewAggregator(
			memStore, counting, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		_, err := aggregator.URLAnalytics(ctx, mapping)
		require.NoError(t, err)

		before := counting.counts

		summary, err := aggregator.URLAnalytics(ctx, mapping)

		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.TotalClicks)
		assert.Equal(t, before, counting.counts)
	})

	t.Run("recomputes after invalidation", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		c := cache.NewMemoryCache()
		mapping := seedMapping(t, memStore, "m1", "user@example.com", "my-url", "")
		seedVisit(t, memStore, "m1", "203.0.113.9", "desktop", "Windows", time.Now())

		aggregator := analytics.NewAggregator(memStore, memStore, c, time.Minute, zap.NewNop())

		summary, err := aggregator.URLAnalytics(ctx, mapping)
		require.NoError(t, err)
		require.Equal(t, int64(1), summary.TotalClicks)

		seedVisit(t, memStore, "m1", "203.0.113.10", "mobile", "iOS", time.Now())
		require.NoError(t, c.Delete(ctx, cache.URLSummaryKey("my-url")))

		summary, err = aggregator.URLAnalytics(ctx, mapping)

		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.TotalClicks)
	})

	t.Run("mapping without visits yields an empty summary", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		mapping := seedMapping(t, memStore, "m1", "user@example.com", "my-url", "")

		aggregator := analytics.NewAggregator(
			memStore, memStore, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		summary, err := aggregator.URLAnalytics(ctx, mapping)

		require.NoError(t, err)
		assert.Zero(t, summary.TotalClicks)
		assert.Zero(t, summary.UniqueUsers)
		assert.Empty(t, summary.ClicksByDate)
		assert.Empty(t, summary.OSType)
		assert.Empty(t, summary.DeviceType)
	})
}

func TestTopicAnalytics(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates across the owner's topic mappings", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		seedMapping(t, memStore, "m1", "user@example.com", "spring-sale", shortener.Topic("acquisition"))
		seedMapping(t, memStore, "m2", "user@example.com", "summer-sale", shortener.Topic("acquisition"))
		seedMapping(t, memStore, "m3", "user@example.com", "onboarding", shortener.Topic("activation"))
		seedMapping(t, memStore, "m4", "other@example.com", "their-url", shortener.Topic("acquisition"))

		seedVisit(t, memStore, "m1", "203.0.113.9", "desktop", "Windows", time.Now())
		seedVisit(t, memStore, "m1", "203.0.113.10", "mobile", "iOS", time.Now())
		seedVisit(t, memStore, "m2", "203.0.113.9", "desktop", "Windows", time.Now())
		seedVisit(t, memStore, "m3", "203.0.113.9", "desktop", "Windows", time.Now())
		seedVisit(t, memStore, "m4", "203.0.113.11", "desktop", "Linux", time.Now())

		aggregator := analytics.NewAggregator(
			memStore, memStore, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		summary, err := aggregator.TopicAnalytics(ctx, "user@example.com", "acquisition")

		require.NoError(t, err)
		assert.Equal(t, int64(3), summary.TotalClicks)
		assert.Equal(t, int64(2), summary.UniqueUsers)

		require.Len(t, summary.URLs, 2)
		assert.Equal(t, "spring-sale", summary.URLs[0].ShortCode)
		assert.Equal(t, int64(2), summary.URLs[0].TotalClicks)
		assert.Equal(t, int64(2), summary.URLs[0].UniqueUsers)
		assert.Equal(t, "summer-sale", summary.URLs[1].ShortCode)
		assert.Equal(t, int64(1), summary.URLs[1].TotalClicks)
	})

	t.Run("topic without mappings yields an empty summary", func(t *testing.T) {
		memStore := store.NewMemoryStore()

		aggregator := analytics.NewAggregator(
			memStore, memStore, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		summary, err := aggregator.TopicAnalytics(ctx, "user@example.com", "retention")

		require.NoError(t, err)
		assert.Zero(t, summary.TotalClicks)
		assert.Empty(t, summary.URLs)
	})
}

func TestOverallAnalytics(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates every mapping of the owner", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		seedMapping(t, memStore, "m1", "user@example.com", "my-url", "")
		seedMapping(t, memStore, "m2", "user@example.com", "other-url", shortener.Topic("retention"))
		seedMapping(t, memStore, "m3", "other@example.com", "their-url", "")

		seedVisit(t, memStore, "m1", "203.0.113.9", "desktop", "Windows", time.Now())
		seedVisit(t, memStore, "m2", "203.0.113.9", "desktop", "Windows", time.Now())
		seedVisit(t, memStore, "m3", "203.0.113.11", "desktop", "Linux", time.Now())

		aggregator := analytics.NewAggregator(
			memStore, memStore, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		summary, err := aggregator.OverallAnalytics(ctx, "user@example.com")

		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.TotalURLs)
		assert.Equal(t, int64(2), summary.TotalClicks)
		assert.Equal(t, int64(1), summary.UniqueUsers)
	})

	t.Run("owner without mappings yields zeroes", func(t *testing.T) {
		memStore := store.NewMemoryStore()

		aggregator := analytics.NewAggregator(
			memStore, memStore, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		summary, err := aggregator.OverallAnalytics(ctx, "nobody@example.com")

		require.NoError(t, err)
		assert.Zero(t, summary.TotalURLs)
		assert.Zero(t, summary.TotalClicks)
	})
}

func TestLocationAnalytics(t *testing.T) {
	ctx := context.Background()

	located := func(t *testing.T, s *store.MemoryStore, mappingID, ip, city string, at time.Time) {
		t.Helper()

		require.NoError(t, s.InsertVisit(context.Background(), &visits.Record{
			MappingID: mappingID,
			Timestamp: at,
			ClientIP:  ip,
			Device:    "desktop",
			OS:        "Windows",
			Location:  &visits.Location{Country: "Netherlands", City: city},
		}))
	}

	t.Run("groups visits by location ordered by count", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		mapping := seedMapping(t, memStore, "m1", "user@example.com", "my-url", "")

		located(t, memStore, "m1", "203.0.113.9", "Amsterdam", time.Now())
		located(t, memStore, "m1", "203.0.113.10", "Amsterdam", time.Now())
		located(t, memStore, "m1", "203.0.113.9", "Rotterdam", time.Now())

		// Visits without a resolved location stay out of the grouping.
		seedVisit(t, memStore, "m1", "203.0.113.11", "desktop", "Linux", time.Now())

		aggregator := analytics.NewAggregator(
			memStore, memStore, cache.NewMemoryCache(), time.Minute, zap.NewNop(),
		)

		summary, err := aggregator.LocationAnalytics(ctx, mapping)

		require.NoError(t, err)
		require.Len(t, summary.Locations, 2)
		assert.Equal(t, "Amsterdam", summary.Locations[0].City)
		assert.Equal(t, int64(2), summary.Locations[0].VisitCount)
		assert.Equal(t, int64(2), summary.Locations[0].UniqueUsers)
		assert.Equal(t, "Rotterdam", summary.Locations[1].City)
		assert.Equal(t, int64(1), summary.Locations[1].VisitCount)
	})

	t.Run("serves repeat reads from cache", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		c := cache.NewMemoryCache()
		mapping := seedMapping(t, memStore, "m1", "user@example.com", "my-url", "")
		located(t, memStore, "m1", "203.0.113.9", "Amsterdam", time.Now())

		aggregator := analytics.NewAggregator(memStore, memStore, c, time.Minute, zap.NewNop())

		first, err := aggregator.LocationAnalytics(ctx, mapping)
		require.NoError(t, err)

		// A later visit is invisible until the cache entry is dropped.
		located(t, memStore, "m1", "203.0.113.10", "Amsterdam", time.Now())

		second, err := aggregator.LocationAnalytics(ctx, mapping)
		require.NoError(t, err)
		assert.Equal(t, first.Locations[0].VisitCount, second.Locations[0].VisitCount)

		require.NoError(t, c.Delete(ctx, cache.LocationSummaryKey("my-url")))

		third, err := aggregator.LocationAnalytics(ctx, mapping)
		require.NoError(t, err)
		assert.Equal(t, int64(2), third.Locations[0].VisitCount)
	})
}
