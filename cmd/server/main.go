package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andresuchdata/restock-engine/internal/api"
	"github.com/andresuchdata/restock-engine/internal/cache"
	"github.com/andresuchdata/restock-engine/internal/config"
	"github.com/andresuchdata/restock-engine/internal/forecast"
	"github.com/andresuchdata/restock-engine/internal/repository"
	"github.com/andresuchdata/restock-engine/internal/repository/memory"
	"github.com/andresuchdata/restock-engine/internal/repository/postgres"
	"github.com/andresuchdata/restock-engine/internal/seed"
	"github.com/andresuchdata/restock-engine/internal/service"
	"github.com/andresuchdata/restock-engine/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("backend", cfg.Inventory.Backend).Msg("Failed to open inventory store")
	}
	defer closeStore()

	if cfg.Inventory.SeedDir != "" {
		summary, err := seed.NewLoader(store, 0).LoadDir(ctx, cfg.Inventory.SeedDir)
		if err != nil {
			logger.Log.Fatal().Err(err).Str("dir", cfg.Inventory.SeedDir).Msg("Failed to load seed data")
		}
		logger.Log.Info().
			Int("products", summary.Products).
			Int("stores", summary.Stores).
			Int("inventory", summary.Inventory).
			Int("transfer_history", summary.TransferHistory).
			Msg("Seed data loaded")
	}

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	var forecaster forecast.Forecaster = forecast.NewBaselineForecaster(store)
	if cfg.Forecast.Endpoint != "" {
		forecaster = forecast.NewHTTPForecaster(cfg.Forecast.Endpoint, nil)
		logger.Log.Info().Str("endpoint", cfg.Forecast.Endpoint).Msg("Using remote forecaster")
	}
	adapter := forecast.NewAdapter(forecaster, forecastCache, cfg.Forecast.Timeout())

	inventoryService := service.NewInventoryService(store, cfg.Inventory.StoreTimeout(), cfg.Inventory.BatchConcurrency)
	decisionService := service.NewDecisionService(inventoryService, store, adapter, cfg.Engine.Policy(), cfg.Engine.PlanConcurrency)

	router := api.NewRouter(&api.Services{
		Inventory: inventoryService,
		Decisions: decisionService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("backend", cfg.Inventory.Backend).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// in-flight requests get 5 seconds to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Inventory.Backend)) {
	case "memory":
		return memory.New(), func() {}, nil
	default:
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db.DB); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewStore(db), func() { db.Close() }, nil
	}
}
