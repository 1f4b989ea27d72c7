package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/estatex/estatex/api"
	"github.com/estatex/estatex/internal/analytics"
	"github.com/estatex/estatex/internal/config"
	"github.com/estatex/estatex/internal/governance"
	"github.com/estatex/estatex/internal/identities"
	"github.com/estatex/estatex/internal/ledger"
	"github.com/estatex/estatex/internal/marketdata"
	"github.com/estatex/estatex/internal/marketplace"
	"github.com/estatex/estatex/internal/portfolio"
	"github.com/estatex/estatex/internal/registry"
	"github.com/estatex/estatex/internal/storage"
	"github.com/estatex/estatex/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.LoadConfig()

	zapLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	store, err := storage.Open(cfg.DataDir, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	identitiesSvc, err := identities.NewService(zapLogger, store)
	if err != nil {
		zapLogger.Fatal("Failed to create identities service", zap.Error(err))
	}

	registrySvc, err := registry.NewService(zapLogger, store, identitiesSvc)
	if err != nil {
		zapLogger.Fatal("Failed to create registry service", zap.Error(err))
	}

	ledgerSvc, err := ledger.NewService(zapLogger, store, identitiesSvc, registrySvc)
	if err != nil {
		zapLogger.Fatal("Failed to create ledger service", zap.Error(err))
	}

	portfolioSvc, err := portfolio.NewService(zapLogger, store, registrySvc)
	if err != nil {
		zapLogger.Fatal("Failed to create portfolio service", zap.Error(err))
	}

	marketdataSvc, err := marketdata.NewService(zapLogger, store)
	if err != nil {
		zapLogger.Fatal("Failed to create market data service", zap.Error(err))
	}

	marketplaceSvc, err := marketplace.NewService(zapLogger, store, identitiesSvc, registrySvc, ledgerSvc, portfolioSvc, marketdataSvc)
	if err != nil {
		zapLogger.Fatal("Failed to create marketplace service", zap.Error(err))
	}

	governanceSvc, err := governance.NewService(zapLogger, store, identitiesSvc, registrySvc, ledgerSvc)
	if err != nil {
		zapLogger.Fatal("Failed to create governance service", zap.Error(err))
	}

	analyticsSvc, err := analytics.NewService(zapLogger, store, identitiesSvc, registrySvc, ledgerSvc, marketplaceSvc, marketdataSvc)
	if err != nil {
		zapLogger.Fatal("Failed to create analytics service", zap.Error(err))
	}

	server := api.NewServer(
		zapLogger,
		identitiesSvc,
		registrySvc,
		ledgerSvc,
		marketplaceSvc,
		portfolioSvc,
		marketdataSvc,
		governanceSvc,
		analyticsSvc,
	)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	go func() {
		zapLogger.Info("starting API server", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("API server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("shutdown failed", zap.Error(err))
	}
}
