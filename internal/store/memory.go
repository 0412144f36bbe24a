package store

import (
	"context"
	"sort"
	"sync"

	"github.com/linkpulse/linkpulse/internal/shortener"
	"github.com/linkpulse/linkpulse/internal/visits"
)

// MemoryStore is an in-memory implementation of shortener.MappingStore
// and visits.Store, used in tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	byCode   map[string]*shortener.Mapping
	byID     map[string]*shortener.Mapping
	records  []visits.Record
	inserted []string // codes in insertion order, for stable listings
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCode: make(map[string]*shortener.Mapping),
		byID:   make(map[string]*shortener.Mapping),
	}
}

func (m *MemoryStore) Insert(_ context.Context, mapping *shortener.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byCode[mapping.ShortCode]; exists {
		return shortener.ErrCodeExists
	}

	clone := *mapping
	m.byCode[mapping.ShortCode] = &clone
	m.byID[mapping.ID] = &clone
	m.inserted = append(m.inserted, mapping.ShortCode)

	return nil
}

func (m *MemoryStore) FindByCode(_ context.Context, code string) (*shortener.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	clone := *mapping

	return &clone, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*shortener.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.byID[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	clone := *mapping

	return &clone, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, owner string) ([]shortener.Mapping, error) {
	return m.list(func(mapping *shortener.Mapping) bool {
		return mapping.Owner == owner
	}), nil
}

func (m *MemoryStore) ListByOwnerAndTopic(
	_ context.Context, owner string, topic shortener.Topic,
) ([]shortener.Mapping, error) {
	return m.list(func(mapping *shortener.Mapping) bool {
		return mapping.Owner == owner && mapping.Topic == topic
	}), nil
}

func (m *MemoryStore) list(match func(*shortener.Mapping) bool) []shortener.Mapping {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var mappings []shortener.Mapping

	for _, code := range m.inserted {
		if mapping := m.byCode[code]; match(mapping) {
			mappings = append(mappings, *mapping)
		}
	}

	return mappings
}

func (m *MemoryStore) InsertVisit(_ context.Context, record *visits.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *record
	if record.Location != nil {
		location := *record.Location
		clone.Location = &location
	}

	m.records = append(m.records, clone)

	return nil
}

func (m *MemoryStore) CountVisits(_ context.Context, filter visits.Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64

	for _, record := range m.records {
		if matchesFilter(record, filter) {
			count++
		}
	}

	return count, nil
}

func (m *MemoryStore) CountDistinctIPs(_ context.Context, filter visits.Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ips := make(map[string]struct{})

	for _, record := range m.records {
		if matchesFilter(record, filter) {
			ips[record.ClientIP] = struct{}{}
		}
	}

	return int64(len(ips)), nil
}

func (m *MemoryStore) CountByField(
	_ context.Context, filter visits.Filter, field visits.Field,
) ([]visits.FieldCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clicks := make(map[string]int64)
	ips := make(map[string]map[string]struct{})

	for _, record := range m.records {
		if !matchesFilter(record, filter) {
			continue
		}

		value := record.OS
		if field == visits.FieldDevice {
			value = record.Device
		}

		clicks[value]++

		if ips[value] == nil {
			ips[value] = make(map[string]struct{})
		}

		ips[value][record.ClientIP] = struct{}{}
	}

	counts := make([]visits.FieldCount, 0, len(clicks))
	for value, n := range clicks {
		counts = append(counts, visits.FieldCount{
			Value:     value,
			Clicks:    n,
			UniqueIPs: int64(len(ips[value])),
		})
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i].Value < counts[j].Value })

	return counts, nil
}

func (m *MemoryStore) CountByDay(_ context.Context, filter visits.Filter) ([]visits.DailyCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	days := make(map[string]int64)

	for _, record := range m.records {
		if matchesFilter(record, filter) {
			days[record.Timestamp.Format("2006-01-02")]++
		}
	}

	counts := make([]visits.DailyCount, 0, len(days))
	for day, n := range days {
		counts = append(counts, visits.DailyCount{Date: day, Clicks: n})
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i].Date < counts[j].Date })

	return counts, nil
}

func (m *MemoryStore) GroupByLocation(
	_ context.Context, filter visits.Filter,
) ([]visits.LocationGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type key struct{ country, region, city string }

	groups := make(map[key]*visits.LocationGroup)
	ips := make(map[key]map[string]struct{})

	for _, record := range m.records {
		if !matchesFilter(record, filter) || record.Location == nil {
			continue
		}

		k := key{record.Location.Country, record.Location.Region, record.Location.City}

		group, ok := groups[k]
		if !ok {
			group = &visits.LocationGroup{
				Country: k.country,
				Region:  k.region,
				City:    k.city,
			}
			groups[k] = group
			ips[k] = make(map[string]struct{})
		}

		group.Clicks++
		ips[k][record.ClientIP] = struct{}{}

		if record.Timestamp.After(group.LastVisit) {
			group.LastVisit = record.Timestamp
		}
	}

	result := make([]visits.LocationGroup, 0, len(groups))

	for k, group := range groups {
		group.UniqueIPs = int64(len(ips[k]))
		result = append(result, *group)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Clicks > result[j].Clicks })

	return result, nil
}

func matchesFilter(record visits.Record, filter visits.Filter) bool {
	if !filter.Since.IsZero() && record.Timestamp.Before(filter.Since) {
		return false
	}

	for _, id := range filter.MappingIDs {
		if record.MappingID == id {
			return true
		}
	}

	return false
}

// Compile-time checks.
var (
	_ shortener.MappingStore = (*MemoryStore)(nil)
	_ visits.Store           = (*MemoryStore)(nil)
)
