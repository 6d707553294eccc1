package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/scaleurl/internal/analytics"
	"github.com/serroba/scaleurl/internal/handlers"
	"github.com/serroba/scaleurl/internal/health"
	"github.com/serroba/scaleurl/internal/messaging"
	"github.com/serroba/scaleurl/internal/middleware"
	"github.com/serroba/scaleurl/internal/ratelimit"
	"github.com/serroba/scaleurl/internal/redirect"
	"github.com/serroba/scaleurl/internal/shortener"
	"github.com/serroba/scaleurl/internal/store"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis stream consumer group of the visit accountant.
const ConsumerGroupName = "visit-accounting"

// RedisClient owns the shared Redis connection pool.
type RedisClient struct {
	*redis.Client
}

// Shutdown closes the pool.
func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == LogFormatJSON {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis client. With no address configured the
// client is not registered and Redis-backed components fall back to memory.
func RedisPackage(i *do.Injector) {
	opts := do.MustInvoke[*Options](i)
	if opts.RedisAddr == "" {
		return
	}

	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		return &RedisClient{redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

func redisClient(i *do.Injector) (*RedisClient, bool) {
	client, err := do.Invoke[*RedisClient](i)
	if err != nil {
		return nil, false
	}

	return client, true
}

// RepositoryPackage provides the Code Store selected by Options.Store.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Store {
		case StorePostgres:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			pool, err := store.NewPostgresPool(ctx, opts.DatabaseURL, int32(opts.MaxConns))
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pool), nil
		case StoreSQLite:
			return store.NewSQLiteStore(opts.SQLitePath)
		case StoreMemory:
			return store.NewMemoryStore(), nil
		default:
			return nil, fmt.Errorf("unknown store %q", opts.Store)
		}
	})
}

// CachePackage provides the fast-path cache, Redis when available.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Cache, error) {
		opts := do.MustInvoke[*Options](i)

		if client, ok := redisClient(i); ok {
			return store.NewRedisCache(client.Client, opts.CacheExpiry()), nil
		}

		return store.NewMemoryCache(opts.CacheExpiry()), nil
	})
}

// RateLimitPackage provides the counter store and the per-code redirect limiter.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		if client, ok := redisClient(i); ok {
			return store.NewRateLimitRedisStore(client.Client), nil
		}

		return store.NewRateLimitMemoryStore(), nil
	})

	do.Provide(i, func(i *do.Injector) (ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewFixedWindowLimiter(
			do.MustInvoke[ratelimit.Store](i),
			int64(opts.RateLimit),
			opts.RateLimitWindow(),
			"rate:",
		), nil
	})
}

// QueuePackage provides the visit queue publisher and subscriber for the
// configured transport.
func QueuePackage(i *do.Injector) {
	opts := do.MustInvoke[*Options](i)

	if opts.QueueBackend == QueueMemory {
		do.Provide(i, func(i *do.Injector) (*messaging.MemoryQueue, error) {
			return messaging.NewMemoryQueue(messaging.DefaultMemoryQueueSize, do.MustInvoke[*zap.Logger](i)), nil
		})
	}

	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := newPublisher(i, opts)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		return newSubscriber(i, opts)
	})
}

func newPublisher(i *do.Injector, opts *Options) (message.Publisher, error) {
	logger := do.MustInvoke[*zap.Logger](i)

	switch opts.QueueBackend {
	case QueueMemory:
		return do.MustInvoke[*messaging.MemoryQueue](i), nil
	case QueueStream:
		client := do.MustInvoke[*RedisClient](i)

		return redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     client.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
	case QueueList:
		return messaging.NewListPublisher(do.MustInvoke[*RedisClient](i).Client), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", opts.QueueBackend)
	}
}

func newSubscriber(i *do.Injector, opts *Options) (message.Subscriber, error) {
	logger := do.MustInvoke[*zap.Logger](i)

	switch opts.QueueBackend {
	case QueueMemory:
		return do.MustInvoke[*messaging.MemoryQueue](i), nil
	case QueueStream:
		client := do.MustInvoke[*RedisClient](i)

		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: ConsumerGroupName,
		}, messaging.NewZapLogger(logger))
	case QueueList:
		client := do.MustInvoke[*RedisClient](i)

		return messaging.NewListSubscriber(client.Client, opts.ListBlockTimeout(), logger), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", opts.QueueBackend)
	}
}

// ResolverPackage provides the redirect resolver and the creator.
func ResolverPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*redirect.Resolver, error) {
		publishers := do.MustInvoke[*messaging.PublisherGroup](i)

		return redirect.NewResolver(
			do.MustInvoke[ratelimit.Limiter](i),
			do.MustInvoke[shortener.Cache](i),
			do.MustInvoke[shortener.Repository](i),
			analytics.NewVisitPublisher(publishers.Publisher(), messaging.DefaultPublishTimeout),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Creator, error) {
		opts := do.MustInvoke[*Options](i)

		generate, err := nanoid.Standard(opts.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("code generator: %w", err)
		}

		return shortener.NewCreator(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[shortener.Cache](i),
			generate,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// AnalyticsPackage provides the query service and the visit accountant.
func AnalyticsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*analytics.Query, error) {
		return analytics.NewQuery(do.MustInvoke[shortener.Repository](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*analytics.Accountant, error) {
		return analytics.NewAccountant(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// ConsumerGroupPackage provides the consumer group draining the visit queue.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		subscriber := do.MustInvoke[message.Subscriber](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewVisitConsumer(
			subscriber,
			do.MustInvoke[*analytics.Accountant](i),
			logger,
			opts.FailureBackoff(),
		))

		return group, nil
	})
}

// HTTPPackage provides the router and the huma API with all routes registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("ScaleURL", "1.0.0"))
		api.UseMiddleware(middleware.RequestContext(api))
		api.UseMiddleware(middleware.ClientRateLimiter(api, do.MustInvoke[ratelimit.Store](i), logger))

		handlers.RegisterRoutes(api,
			handlers.NewURLHandler(
				do.MustInvoke[*shortener.Creator](i),
				do.MustInvoke[*redirect.Resolver](i),
				opts.BaseURL,
				logger,
			),
			handlers.NewAnalyticsHandler(do.MustInvoke[*analytics.Query](i), logger),
		)

		health.RegisterRoutes(api, newHealthHandler(i))

		return api, nil
	})
}

func newHealthHandler(i *do.Injector) *health.Handler {
	var redisChecker, databaseChecker health.Checker

	if client, ok := redisClient(i); ok {
		redisChecker = health.NewRedisChecker(client.Client)
	}

	if pinger, ok := do.MustInvoke[shortener.Repository](i).(health.Checker); ok {
		databaseChecker = pinger
	}

	return health.NewHandler(redisChecker, databaseChecker)
}
