// Package ratelimit enforces fixed-window creation quotas per identity,
// backed by a counter store shared across service instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// MetadataKey marks a huma operation as subject to creation rate
// limiting via its Metadata map.
const MetadataKey = "creationRateLimit"

// Window is one fixed counting window. Counters reset at window
// boundaries, so a client can briefly see up to twice the nominal rate
// across a boundary; that is accepted behavior of this algorithm.
type Window struct {
	Name    string
	Limit   int64
	Length  time.Duration
	Message string
}

// CreationWindows returns the two windows evaluated on every creation
// request: an hourly quota and a short burst quota.
func CreationWindows() []Window {
	return []Window{
		{
			Name:    "hourly",
			Limit:   50,
			Length:  time.Hour,
			Message: "URL creation limit exceeded. You can create up to 50 URLs per hour.",
		},
		{
			Name:    "burst",
			Limit:   5,
			Length:  time.Minute,
			Message: "Please wait a moment before creating more URLs. Maximum 5 URLs per minute.",
		},
	}
}

// Exceeded describes a window whose limit was passed.
type Exceeded struct {
	Window Window
	Count  int64
}

// FixedWindowLimiter counts admissions per (identity, window) in the
// shared counter store. Every window is evaluated on each check so the
// caller can report all violations; a rejected attempt still consumes
// quota in every window.
type FixedWindowLimiter struct {
	store   CounterStore
	windows []Window
}

// NewFixedWindowLimiter creates a limiter over the given windows.
func NewFixedWindowLimiter(store CounterStore, windows ...Window) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:   store,
		windows: windows,
	}
}

// Check records one attempt for the identity and reports whether it is
// admitted. The returned slice lists every window whose limit the
// attempt exceeded.
func (l *FixedWindowLimiter) Check(ctx context.Context, identity string) (bool, []Exceeded, error) {
	var exceeded []Exceeded

	for _, window := range l.windows {
		key := counterKey(identity, window)

		count, err := l.store.Increment(ctx, key)
		if err != nil {
			return false, nil, err
		}

		if count == 1 {
			// First increment opens the window.
			if err := l.store.ExpireAfter(ctx, key, window.Length); err != nil {
				return false, nil, err
			}
		}

		if count > window.Limit {
			exceeded = append(exceeded, Exceeded{Window: window, Count: count})
		}
	}

	return len(exceeded) == 0, exceeded, nil
}

func counterKey(identity string, window Window) string {
	return fmt.Sprintf("ratelimit:%s:%s", window.Name, identity)
}
