package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"orcamento/internal/cache"
	"orcamento/internal/cli"
	apphttp "orcamento/internal/http"
	applog "orcamento/internal/log"
	"orcamento/internal/services"
	"orcamento/internal/storage"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)

	result := cli.OpenStore(context.Background(), cfg, logger)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Storage cleanup failed", applog.Err(err))
		}
	}()
	store := result.Store

	dashboards := cache.NewLRUCache[services.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	cacheManager.Register(dashboards)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	deriver := services.NewDeriver(store, cfg.ProjectionHorizon, dashboards, logger.WithComponent(applog.ComponentDeriver).Logger)
	recorder := services.NewRecorder(store, logger.WithComponent(applog.ComponentRecorder).Logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Deriver:            deriver,
		Recorder:           recorder,
		Ready:              readiness(store),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.Err(err))
		}
	})

	logger.Info("Starting orcamento server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		applog.FieldHorizon, cfg.ProjectionHorizon)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.Err(err), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// readiness pings stores that hold a connection and otherwise checks that
// the snapshot still loads.
func readiness(store storage.Store) func(context.Context) error {
	return func(ctx context.Context) error {
		if p, ok := store.(pinger); ok {
			return p.Ping(ctx)
		}
		_, err := store.Load(ctx)
		return err
	}
}
