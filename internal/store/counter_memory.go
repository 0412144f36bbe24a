package store

import (
	"context"
	"sync"
	"time"

	"github.com/linkpulse/linkpulse/internal/ratelimit"
)

type counter struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounterStore is an in-memory implementation of
// ratelimit.CounterStore for tests and single-process setups.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// NewMemoryCounterStore creates a new in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*counter),
	}
}

func (s *MemoryCounterStore) Increment(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if ok && !c.expiresAt.IsZero() && time.Now().After(c.expiresAt) {
		ok = false
	}

	if !ok {
		c = &counter{}
		s.counters[key] = c
	}

	c.count++

	return c.count, nil
}

func (s *MemoryCounterStore) ExpireAfter(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[key]; ok {
		c.expiresAt = time.Now().Add(ttl)
	}

	return nil
}

// Compile-time check.
var _ ratelimit.CounterStore = (*MemoryCounterStore)(nil)
