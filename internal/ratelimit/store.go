package ratelimit

import (
	"context"
	"time"
)

// CounterStore is the shared counter backend for rate limiting. State
// must be visible across all service instances.
type CounterStore interface {
	// Increment atomically increments the counter for key and returns the
	// new count. A plain get-then-set sequence would let concurrent
	// requests both observe a low count and both be admitted.
	Increment(ctx context.Context, key string) (int64, error)

	// ExpireAfter sets the remaining lifetime of the counter. Called only
	// on the first increment of a window.
	ExpireAfter(ctx context.Context, key string, ttl time.Duration) error
}
