package shortener

import (
	"context"
	"errors"
	"time"
)

// Topic buckets a mapping into one of the campaign funnel stages.
type Topic string

const (
	TopicAcquisition Topic = "acquisition"
	TopicActivation  Topic = "activation"
	TopicRetention   Topic = "retention"
)

// ValidTopic reports whether t is one of the known topics. The empty
// topic is valid: mappings are not required to belong to a campaign.
func ValidTopic(t Topic) bool {
	switch t {
	case "", TopicAcquisition, TopicActivation, TopicRetention:
		return true
	}

	return false
}

// Mapping binds a short code to a long URL. Mappings are immutable after
// creation.
type Mapping struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	LongURL   string    `json:"longUrl"`
	ShortCode string    `json:"shortCode"`
	Topic     Topic     `json:"topic,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	// ErrNotFound is returned when no mapping exists for a code or id.
	ErrNotFound = errors.New("mapping not found")

	// ErrAliasTaken is returned when a requested custom alias is already
	// bound to another mapping.
	ErrAliasTaken = errors.New("custom alias already in use")

	// ErrCodeExists is the store-level conflict signal: an insert hit the
	// short-code uniqueness constraint.
	ErrCodeExists = errors.New("short code already exists")

	// ErrGenerationExhausted is returned when every generated candidate
	// code collided with an existing mapping.
	ErrGenerationExhausted = errors.New("could not generate a unique short code")
)

// MappingStore is the durable source of truth for mappings. Insert must
// enforce short-code uniqueness and return ErrCodeExists on conflict.
type MappingStore interface {
	Insert(ctx context.Context, m *Mapping) error
	FindByCode(ctx context.Context, code string) (*Mapping, error)
	FindByID(ctx context.Context, id string) (*Mapping, error)
	ListByOwner(ctx context.Context, owner string) ([]Mapping, error)
	ListByOwnerAndTopic(ctx context.Context, owner string, topic Topic) ([]Mapping, error)
}
