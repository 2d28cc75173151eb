package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/fire-aq-dashboard/internal/adapter/csvcatalog"
	httpadapter "github.com/couchcryptid/fire-aq-dashboard/internal/adapter/http"
	"github.com/couchcryptid/fire-aq-dashboard/internal/adapter/postgres"
	"github.com/couchcryptid/fire-aq-dashboard/internal/adapter/waqi"
	"github.com/couchcryptid/fire-aq-dashboard/internal/config"
	"github.com/couchcryptid/fire-aq-dashboard/internal/dashboard"
	"github.com/couchcryptid/fire-aq-dashboard/internal/observability"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fire catalog: Postgres when a DSN is configured, otherwise the CSV file.
	var source dashboard.CatalogSource = csvcatalog.NewLoader(cfg.FireCatalogPath, logger)
	if cfg.FireCatalogDSN != "" {
		pool, err := postgres.Connect(ctx, cfg.FireCatalogDSN)
		if err != nil {
			logger.Warn("fire catalog database unavailable, using csv file", "error", err, "path", cfg.FireCatalogPath)
		} else {
			defer pool.Close()
			source = postgres.NewCatalogRepository(pool)
			logger.Info("fire catalog source: postgres")
		}
	}
	catalog := dashboard.NewCatalog(source, logger, metrics)

	client := waqi.NewClient(cfg.WAQIToken, cfg.WAQIBaseURL, cfg.WAQITimeout, clock, metrics, logger)
	cached := waqi.NewCachedClient(client, cfg.AQCacheTTL, cfg.AQCacheSize, clock, metrics)
	logger.Info("waqi client configured", "base_url", cfg.WAQIBaseURL, "timeout", cfg.WAQITimeout, "cache_ttl", cfg.AQCacheTTL, "cache_size", cfg.AQCacheSize)

	orchestrator := dashboard.NewOrchestrator(cached, cfg.DefaultCity, logger, metrics)
	svc := dashboard.NewService(catalog, orchestrator, clock, logger, metrics)
	svc.Warm(ctx)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
