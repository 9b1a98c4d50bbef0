package main

import (
	"context"
	"os"
	"time"

	"orcamento/internal/amqp"
	"orcamento/internal/cli"
	applog "orcamento/internal/log"
	"orcamento/internal/services"
	"orcamento/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)

	logger.Info("Starting projection-worker",
		applog.FieldHorizon, cfg.ProjectionHorizon,
		"interval", cfg.ProjectionInterval.String())

	startCtx, startCancel := context.WithCancel(context.Background())
	defer startCancel()

	result := cli.OpenStore(startCtx, cfg, logger)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Storage cleanup failed", applog.Err(err))
		}
	}()

	deriver := services.NewDeriver(result.Store, cfg.ProjectionHorizon, nil, logger.WithComponent(applog.ComponentDeriver).Logger)

	// A nil publisher keeps the worker computing without a broker.
	var publisher worker.Publisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(startCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.Err(err))
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	}

	projectionWorker := worker.NewProjectionWorker(deriver, publisher, worker.Config{
		Interval: cfg.ProjectionInterval,
		Horizon:  cfg.ProjectionHorizon,
	}, logger.Logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := projectionWorker.Stop(ctx); err != nil {
			logger.Error("Worker shutdown error", applog.Err(err))
		}
	})

	if err := projectionWorker.Start(startCtx); err != nil {
		logger.Error("Failed to start projection worker", applog.Err(err))
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Projection worker stopped")
}
