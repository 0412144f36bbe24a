package visits

import (
	"context"
	"time"

	"github.com/linkpulse/linkpulse/internal/cache"
	"go.uber.org/zap"
)

// Tracker consumes visit events, enriches them, persists the resulting
// record, and invalidates cached analytics for the visited code. Every
// failure is logged and swallowed: a lost visit is acceptable, a broken
// redirect is not, and a poisoned event must not be redelivered forever.
type Tracker struct {
	store   Store
	cache   cache.Cache
	locator Locator
	logger  *zap.Logger
}

// NewTracker creates a new visit tracker.
func NewTracker(store Store, c cache.Cache, locator Locator, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:   store,
		cache:   c,
		locator: locator,
		logger:  logger,
	}
}

// HandleEvent is the messaging handler for visit.recorded events. It
// always returns nil.
func (t *Tracker) HandleEvent(ctx context.Context, event *Event) error {
	ip := NormalizeIP(event.ClientIP)
	classification := Classify(event.UserAgent)

	timestamp := event.VisitedAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	record := &Record{
		MappingID: event.MappingID,
		Timestamp: timestamp,
		ClientIP:  ip,
		UserAgent: event.UserAgent,
		Device:    classification.Device,
		OS:        classification.OS,
		Browser:   classification.Browser,
	}

	if ip != "" {
		location, err := t.locator.Lookup(ctx, ip)
		if err != nil {
			t.logger.Warn("geo lookup failed",
				zap.String("code", event.ShortCode),
				zap.Error(err),
			)
		} else {
			record.Location = location
		}
	}

	if err := t.store.InsertVisit(ctx, record); err != nil {
		t.logger.Error("failed to persist visit",
			zap.String("code", event.ShortCode),
			zap.Error(err),
		)

		return nil
	}

	t.invalidateSummaries(ctx, event.ShortCode)

	t.logger.Debug("visit recorded",
		zap.String("code", event.ShortCode),
		zap.String("device", record.Device),
	)

	return nil
}

// invalidateSummaries drops cached analytics for the code so the next
// read reflects this visit. The URL-lookup cache entry stays valid.
func (t *Tracker) invalidateSummaries(ctx context.Context, code string) {
	keys := []string{
		cache.URLSummaryKey(code),
		cache.LocationSummaryKey(code),
	}

	for _, key := range keys {
		if err := t.cache.Delete(ctx, key); err != nil {
			t.logger.Warn("failed to invalidate analytics cache",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
}
