// Package main is the entry point for the boxpack layout API server.
//
// Usage:
//
//	go run ./cmd/api-gateway
//
// Environment Variables:
//
//	BOXPACK_APP_ENVIRONMENT    - Deployment environment (development, staging, production)
//	BOXPACK_SERVER_PORT        - HTTP server port (default: 8080)
//	BOXPACK_LOG_LEVEL          - Minimum log level (default: info)
//	BOXPACK_STORAGE_DRIVER     - Layout store: memory or redis (default: memory)
//	BOXPACK_STORAGE_REDIS_ADDR - Redis address when the driver is redis
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hapkiduki/boxpack/internal/application/port"
	"github.com/hapkiduki/boxpack/internal/application/service"
	"github.com/hapkiduki/boxpack/internal/domain/repository"
	"github.com/hapkiduki/boxpack/internal/infrastructure/config"
	"github.com/hapkiduki/boxpack/internal/infrastructure/logging"
	"github.com/hapkiduki/boxpack/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/boxpack/internal/infrastructure/persistance/redis"
	"github.com/hapkiduki/boxpack/internal/interfaces/http/handler"
	"github.com/hapkiduki/boxpack/internal/interfaces/http/middleware"
	"github.com/hapkiduki/boxpack/pkg/logger"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log := logger.MustNew(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.App.Environment == "development",
	})
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("Starting boxpack layout API",
		"version", version,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
	)

	// Create context that listens for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logAdapter := logging.NewAdapter(log)

	repo, checks, closeRepo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to open layout store", "error", err)
	}
	defer closeRepo()

	svc := service.NewLayoutService(repo, logAdapter, service.Limits{
		DefaultUnit: cfg.Packing.DefaultUnit,
		MaxChildren: cfg.Packing.MaxChildren,
		MaxDepth:    cfg.Packing.MaxDepth,
	})

	router := handler.NewRouter(
		handler.RouterConfig{
			Version:        version,
			AllowedOrigins: cfg.Server.CORSAllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
			RateLimit:      middleware.NewRateLimiterConfig(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		},
		logAdapter,
		handler.NewLayoutHandler(svc, logAdapter, cfg.Server.MaxRequestSize, version),
		handler.NewHealthHandler(version, time.Now(), checks),
	)

	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	log.Info("Server shutdown complete")
}

// openRepository builds the configured layout store, the health checks that
// go with it and a function releasing it.
func openRepository(ctx context.Context, cfg config.StorageConfig) (repository.LayoutRepository, map[string]port.HealthChecker, func(), error) {
	switch cfg.Driver {
	case config.StorageRedis:
		repo, err := redis.NewLayoutRepository(ctx, redis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			TTL:       cfg.Redis.TTL,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		checks := map[string]port.HealthChecker{"redis": repo}
		return repo, checks, func() { repo.Close() }, nil
	case config.StorageMemory:
		return memory.NewLayoutRepository(), nil, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: unknown storage driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
}
