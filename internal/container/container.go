// Package container wires the application with samber/do. Each concern
// registers its providers through a *Package function so the server and
// tracker binaries can assemble only what they need.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkpulse/linkpulse/internal/analytics"
	"github.com/linkpulse/linkpulse/internal/cache"
	"github.com/linkpulse/linkpulse/internal/handlers"
	"github.com/linkpulse/linkpulse/internal/health"
	"github.com/linkpulse/linkpulse/internal/messaging"
	"github.com/linkpulse/linkpulse/internal/middleware"
	"github.com/linkpulse/linkpulse/internal/ratelimit"
	"github.com/linkpulse/linkpulse/internal/shortener"
	"github.com/linkpulse/linkpulse/internal/store"
	"github.com/linkpulse/linkpulse/internal/visits"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// Options are the process options shared by both binaries.
type Options struct {
	Port        int    `default:"8888"                                  help:"Port to listen on"                              short:"p"`
	BaseURL     string `default:""                                      help:"Public base URL for short links"`
	RedisAddr   string `default:"localhost:6379"                        help:"Redis server address"                           short:"r"`
	PostgresDSN string `default:"postgres://localhost:5432/linkpulse"   help:"PostgreSQL connection string"`
	CodeLength  int    `default:"8"                                     help:"Length of generated short codes"                short:"c"`
	CacheTTL    int    `default:"3600"                                  help:"URL cache TTL in seconds"`
	GeoAPIURL   string `default:"https://api.ip2location.io/"           help:"Geolocation API endpoint"`
	GeoAPIKey   string `default:""                                      help:"Geolocation API key (empty disables lookups)"`
	LogFormat   string `default:"console"                               help:"Log format: console or json"`
}

func (o *Options) baseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// LoggerPackage provides the shared zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: options.RedisAddr}), nil
	})
}

// PostgresPackage provides the shared pgx connection pool.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		return pgxpool.New(context.Background(), options.PostgresDSN)
	})
}

// StorePackage provides the Postgres store and binds it to the mapping
// and visit store capabilities.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*store.PostgresStore, error) {
		return store.NewPostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (shortener.MappingStore, error) {
		return do.MustInvoke[*store.PostgresStore](i), nil
	})

	do.Provide(injector, func(i *do.Injector) (visits.Store, error) {
		return do.MustInvoke[*store.PostgresStore](i), nil
	})
}

// CachePackage provides the Redis-backed byte cache.
func CachePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (cache.Cache, error) {
		return cache.NewRedisCache(do.MustInvoke[*redis.Client](i)), nil
	})
}

// RateLimitPackage provides the fixed-window creation limiter over the
// shared Redis counters.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.CounterStore, error) {
		return store.NewRedisCounterStore(do.MustInvoke[*redis.Client](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*ratelimit.FixedWindowLimiter, error) {
		counters := do.MustInvoke[ratelimit.CounterStore](i)

		return ratelimit.NewFixedWindowLimiter(counters, ratelimit.CreationWindows()...), nil
	})
}

// ShortenerPackage provides the code generator, resolver, and analytics
// aggregator.
func ShortenerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.CodeGenerator, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewCodeGenerator(options.CodeLength)
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Resolver, error) {
		options := do.MustInvoke[*Options](i)

		return shortener.NewResolver(
			do.MustInvoke[shortener.MappingStore](i),
			do.MustInvoke[cache.Cache](i),
			do.MustInvoke[shortener.CodeGenerator](i),
			time.Duration(options.CacheTTL)*time.Second,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*analytics.Aggregator, error) {
		return analytics.NewAggregator(
			do.MustInvoke[shortener.MappingStore](i),
			do.MustInvoke[visits.Store](i),
			do.MustInvoke[cache.Cache](i),
			analytics.DefaultSummaryTTL,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// PublisherPackage provides the Redis-stream publisher and the typed
// visit-event publish function.
func PublisherPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: do.MustInvoke[*redis.Client](i)},
			watermill.NopLogger{},
		)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[visits.Event], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[visits.Event](group.Publisher(), visits.TopicVisitRecorded), nil
	})
}

// TrackerPackage provides the visit tracker and the consumer group that
// feeds it from the Redis stream.
func TrackerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (visits.Locator, error) {
		options := do.MustInvoke[*Options](i)

		if options.GeoAPIKey == "" {
			return visits.NoopLocator{}, nil
		}

		return visits.NewHTTPLocator(options.GeoAPIURL, options.GeoAPIKey), nil
	})

	do.Provide(injector, func(i *do.Injector) (*visits.Tracker, error) {
		return visits.NewTracker(
			do.MustInvoke[visits.Store](i),
			do.MustInvoke[cache.Cache](i),
			do.MustInvoke[visits.Locator](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*redis.Client](i),
				ConsumerGroup: "visit-tracker",
			},
			watermill.NopLogger{},
		)
		if err != nil {
			return nil, err
		}

		tracker := do.MustInvoke[*visits.Tracker](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber, visits.TopicVisitRecorded, tracker.HandleEvent, logger,
		))

		return group, nil
	})
}

// HTTPPackage provides the chi router and the huma API with all routes
// and middleware registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("LinkPulse", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))
		api.UseMiddleware(middleware.CreationRateLimiter(
			api, do.MustInvoke[*ratelimit.FixedWindowLimiter](i), logger,
		))

		urlHandler := handlers.NewURLHandler(
			do.MustInvoke[*shortener.Resolver](i),
			do.MustInvoke[messaging.Publish[visits.Event]](i),
			options.baseURL(),
			logger,
		)

		analyticsHandler := handlers.NewAnalyticsHandler(
			do.MustInvoke[shortener.MappingStore](i),
			do.MustInvoke[*analytics.Aggregator](i),
			logger,
		)

		handlers.RegisterRoutes(api, urlHandler, analyticsHandler)

		healthHandler := health.NewHandler(
			health.NewRedisChecker(do.MustInvoke[*redis.Client](i)),
			health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i)),
		)
		health.RegisterRoutes(api, healthHandler)

		return api, nil
	})
}
