package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vinayakry63/lead-manager/internal/config"
	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/handler"
	"github.com/vinayakry63/lead-manager/internal/infra/cache"
	"github.com/vinayakry63/lead-manager/internal/infra/observability"
	"github.com/vinayakry63/lead-manager/internal/infra/postgres"
	"github.com/vinayakry63/lead-manager/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("store_timeout", cfg.StoreTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.String("cors_origin", cfg.CORSOrigin),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "lead-manager")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := postgres.New(startupCtx, cfg, logger)
	if err != nil {
		startupCancel()
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.EnsureSchema(startupCtx); err != nil {
		startupCancel()
		logger.Fatal("failed to apply schema", zap.Error(err))
	}
	startupCancel()
	logger.Info("database ready")

	// --- Cache ---
	userCache := cache.New[*domain.User](cfg.CacheTTL)

	// --- Services ---
	authSvc := service.NewAuthService(store, cfg.JWTSecret, cfg.SessionTTL, logger)
	leadSvc := service.NewLeadService(store, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Leads:        leadSvc,
		Auth:         authSvc,
		Users:        userCache,
		Store:        store,
		Metrics:      metrics,
		Logger:       logger,
		CORSOrigin:   cfg.CORSOrigin,
		CookieSecure: cfg.CookieSecure,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
