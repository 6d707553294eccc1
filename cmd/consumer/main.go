package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/samber/do"
	"github.com/serroba/scaleurl/internal/container"
	"github.com/serroba/scaleurl/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	opts, err := container.LoadConsumerOptions()
	if err != nil {
		panic(err)
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.RepositoryPackage(injector)
	container.QueuePackage(injector)
	container.AnalyticsPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	defer func() { _ = logger.Sync() }()

	if opts.QueueBackend == container.QueueMemory {
		logger.Fatal("the memory queue only runs inside the server process")
	}

	group, err := do.Invoke[*messaging.ConsumerGroup](injector)
	if err != nil {
		logger.Fatal("failed to build consumer group", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("visit consumer starting",
		zap.String("queue", opts.QueueBackend),
		zap.String("store", opts.Store),
	)

	if err := group.Run(ctx); err != nil {
		logger.Error("consumer group stopped", zap.Error(err))
	}

	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
