// Package cache provides the best-effort byte cache used in front of the
// durable stores. A cache failure is never authoritative: callers treat
// any error as a miss.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when no value exists for the key.
var ErrMiss = errors.New("cache miss")

// Cache is a key-value store with per-key TTL. All operations are
// advisory from the caller's perspective.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MappingKey is the cache key for a code-to-URL lookup snapshot.
func MappingKey(code string) string {
	return "url:" + code
}

// URLSummaryKey is the cache key for a per-URL analytics summary.
func URLSummaryKey(code string) string {
	return "analytics:url:" + code
}

// LocationSummaryKey is the cache key for a per-URL location summary.
func LocationSummaryKey(code string) string {
	return "analytics:location:" + code
}
