package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/linkpulse/linkpulse/internal/cache"
	"go.uber.org/zap"
)

// generateRetries bounds how many random codes are tried before creation
// fails with ErrGenerationExhausted.
const generateRetries = 5

// CreateParams are the inputs for creating a mapping.
type CreateParams struct {
	Owner   string
	LongURL string
	Alias   string
	Topic   Topic
}

// Resolver orchestrates mapping creation and short-code lookup over the
// store and the cache. The store is the source of truth; the cache is a
// lazily rebuilt accelerator.
type Resolver struct {
	store    MappingStore
	cache    cache.Cache
	generate CodeGenerator
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewResolver creates a new resolver.
func NewResolver(
	store MappingStore, c cache.Cache, generate CodeGenerator, cacheTTL time.Duration, logger *zap.Logger,
) *Resolver {
	return &Resolver{
		store:    store,
		cache:    c,
		generate: generate,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// CreateMapping persists a new mapping, using the supplied alias or a
// generated code. Alias uniqueness is decided by the store, never by the
// cache, which may be empty or stale right after another writer's insert.
func (r *Resolver) CreateMapping(ctx context.Context, params CreateParams) (*Mapping, error) {
	if params.Alias != "" {
		return r.createWithAlias(ctx, params)
	}

	return r.createGenerated(ctx, params)
}

func (r *Resolver) createWithAlias(ctx context.Context, params CreateParams) (*Mapping, error) {
	if err := ValidateAlias(params.Alias); err != nil {
		return nil, err
	}

	_, err := r.store.FindByCode(ctx, params.Alias)
	if err == nil {
		return nil, ErrAliasTaken
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	mapping := newMapping(params, params.Alias)

	if err := r.store.Insert(ctx, mapping); err != nil {
		if errors.Is(err, ErrCodeExists) {
			// Lost the check-then-insert race; the unique index decides.
			return nil, ErrAliasTaken
		}

		return nil, err
	}

	r.cacheMapping(ctx, mapping)

	return mapping, nil
}

func (r *Resolver) createGenerated(ctx context.Context, params CreateParams) (*Mapping, error) {
	for attempt := 0; attempt < generateRetries; attempt++ {
		mapping := newMapping(params, r.generate())

		err := r.store.Insert(ctx, mapping)
		if err == nil {
			r.cacheMapping(ctx, mapping)

			return mapping, nil
		}

		if !errors.Is(err, ErrCodeExists) {
			return nil, err
		}

		r.logger.Debug("generated code collided, retrying",
			zap.String("code", mapping.ShortCode),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, ErrGenerationExhausted
}

// Resolve returns the mapping for a short code, checking the cache first
// and repopulating it on a store hit. A cache error is treated as a miss.
func (r *Resolver) Resolve(ctx context.Context, code string) (*Mapping, error) {
	if mapping, err := r.fromCache(ctx, code); err == nil {
		return mapping, nil
	}

	mapping, err := r.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheMapping(ctx, mapping)

	return mapping, nil
}

func (r *Resolver) fromCache(ctx context.Context, code string) (*Mapping, error) {
	payload, err := r.cache.Get(ctx, cache.MappingKey(code))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			r.logger.Warn("cache lookup failed", zap.String("code", code), zap.Error(err))
		}

		return nil, err
	}

	var mapping Mapping
	if err := json.Unmarshal(payload, &mapping); err != nil {
		return nil, err
	}

	return &mapping, nil
}

// cacheMapping writes a mapping snapshot to the cache. Failures are
// logged and otherwise ignored.
func (r *Resolver) cacheMapping(ctx context.Context, mapping *Mapping) {
	payload, err := json.Marshal(mapping)
	if err != nil {
		return
	}

	if err := r.cache.Set(ctx, cache.MappingKey(mapping.ShortCode), payload, r.cacheTTL); err != nil {
		r.logger.Warn("cache write failed",
			zap.String("code", mapping.ShortCode),
			zap.Error(err),
		)
	}
}

func newMapping(params CreateParams, code string) *Mapping {
	return &Mapping{
		ID:        uuid.NewString(),
		Owner:     params.Owner,
		LongURL:   params.LongURL,
		ShortCode: code,
		Topic:     params.Topic,
		CreatedAt: time.Now(),
	}
}
