package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/scaleurl/internal/container"
	"github.com/serroba/scaleurl/internal/messaging"
	"github.com/serroba/scaleurl/internal/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.RepositoryPackage(injector)
	container.CachePackage(injector)
	container.RateLimitPackage(injector)
	container.QueuePackage(injector)
	container.ResolverPackage(injector)
	container.AnalyticsPackage(injector)
	container.ConsumerGroupPackage(injector)
	container.HTTPPackage(injector)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		if err := options.Validate(); err != nil {
			panic(err)
		}

		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			// The in-process queue has no other reader, so the server drains it itself.
			if options.QueueBackend == container.QueueMemory {
				group := do.MustInvoke[*messaging.ConsumerGroup](injector)
				if err := group.Start(context.Background()); err != nil {
					logger.Fatal("failed to start visit consumer", zap.Error(err))
				}
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("store", options.Store),
				zap.String("queue", options.QueueBackend),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
			_ = logger.Sync()
		})
	})

	cli.Root().AddCommand(migrateCommand())

	cli.Run()
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the PostgreSQL schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		Run: humacli.WithOptions(func(_ *cobra.Command, args []string, options *container.Options) {
			logger, err := zap.NewDevelopment()
			if err != nil {
				panic(err)
			}
			defer func() { _ = logger.Sync() }()

			migrator, err := migrations.New(options.DatabaseURL, logger)
			if err != nil {
				logger.Fatal("failed to open migrations", zap.Error(err))
			}

			defer func() {
				if err := migrator.Close(); err != nil {
					logger.Error("failed to close migrator", zap.Error(err))
				}
			}()

			switch args[0] {
			case "up":
				err = migrator.Up()
			case "down":
				err = migrator.Down()
			default:
				err = fmt.Errorf("unknown direction %q, expected up or down", args[0])
			}

			if err != nil {
				logger.Error("migration failed", zap.Error(err))

				return
			}

			logger.Info("migration complete", zap.String("direction", args[0]))
		}),
	}
}
