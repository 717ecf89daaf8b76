package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/andresuchdata/restock-engine/internal/cache"
	"github.com/andresuchdata/restock-engine/internal/config"
	"github.com/andresuchdata/restock-engine/internal/forecast"
	"github.com/andresuchdata/restock-engine/internal/repository"
	"github.com/andresuchdata/restock-engine/internal/repository/memory"
	"github.com/andresuchdata/restock-engine/internal/repository/postgres"
	"github.com/andresuchdata/restock-engine/internal/seed"
	"github.com/andresuchdata/restock-engine/internal/service"
	"github.com/andresuchdata/restock-engine/internal/storage"
	"github.com/andresuchdata/restock-engine/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)

	storeFlag := &cli.StringFlag{Name: "store", Usage: "Restrict the report to one store"}

	app := &cli.App{
		Name:  "report",
		Usage: "Export decision reports as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Local directory for the CSV files",
				Value: cfg.App.ExportDir,
			},
			&cli.BoolFlag{
				Name:  "upload",
				Usage: "Upload reports to the configured bucket",
				Value: cfg.Storage.Bucket != "",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "alerts",
				Usage: "Write low stock and overstock alerts",
				Flags: []cli.Flag{storeFlag},
				Action: func(c *cli.Context) error {
					exporter, err := newExporter(c, cfg)
					if err != nil {
						return err
					}
					paths, err := exporter.ExportAlerts(c.Context, c.String("store"))
					if err != nil {
						return err
					}
					for _, p := range paths {
						logger.Log.Info().Str("file", p).Msg("Report written")
					}
					return nil
				},
			},
			{
				Name:  "remediation",
				Usage: "Write the remediation plan",
				Flags: []cli.Flag{
					storeFlag,
					&cli.StringFlag{Name: "product", Usage: "Restrict the plan to one product"},
				},
				Action: func(c *cli.Context) error {
					exporter, err := newExporter(c, cfg)
					if err != nil {
						return err
					}
					p, err := exporter.ExportRemediation(c.Context, c.String("store"), c.String("product"))
					if err != nil {
						return err
					}
					logger.Log.Info().Str("file", p).Msg("Report written")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newExporter(c *cli.Context, cfg *config.Config) (*service.ExportService, error) {
	store, err := openStore(c.Context, cfg)
	if err != nil {
		return nil, err
	}

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}
	var forecaster forecast.Forecaster = forecast.NewBaselineForecaster(store)
	if cfg.Forecast.Endpoint != "" {
		forecaster = forecast.NewHTTPForecaster(cfg.Forecast.Endpoint, nil)
	}
	adapter := forecast.NewAdapter(forecaster, forecastCache, cfg.Forecast.Timeout())

	inventory := service.NewInventoryService(store, cfg.Inventory.StoreTimeout(), cfg.Inventory.BatchConcurrency)
	decisions := service.NewDecisionService(inventory, store, adapter, cfg.Engine.Policy(), cfg.Engine.PlanConcurrency)

	var objects storage.ObjectStorage
	if c.Bool("upload") {
		client, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			return nil, err
		}
		objects = client
	}

	return service.NewExportService(decisions, objects, c.String("out"), cfg.Storage.ExportPrefix), nil
}

// openStore reads from postgres, or from the seed directory when the
// memory backend is selected.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Inventory.Backend != "memory" {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return postgres.NewStore(db), nil
	}

	store := memory.New()
	dir := cfg.Inventory.SeedDir
	if dir == "" {
		dir = cfg.App.DataDir
	}
	if _, err := seed.NewLoader(store, 0).LoadDir(ctx, dir); err != nil {
		return nil, err
	}
	return store, nil
}
