package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/config"
	"github.com/doceencanto/storefront-go/internal/handler"
	"github.com/doceencanto/storefront-go/internal/infra/memstore"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
	"github.com/doceencanto/storefront-go/internal/service"
)

// bakeryd is the reference backend: the /api routes the storefront consumes
// plus a local identity emulator, all backed by in-memory stores.
func main() {
	_ = config.LoadDotEnv(".env")

	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("auth_required", cfg.AuthRequired),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "bakeryd")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	metrics := observability.NewMetrics()

	// --- Stores & services ---
	products := memstore.NewProductStore()
	sales := memstore.NewSalesStore()
	users := memstore.NewUserStore()

	backend := service.NewBackendService(products, sales, logger)
	identity := service.NewIdentityService(users, cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	router := handler.NewRouter(backend, identity, metrics, logger, cfg.AuthRequired)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

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
