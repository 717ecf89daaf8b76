package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/andresuchdata/restock-engine/internal/cache"
	"github.com/andresuchdata/restock-engine/internal/config"
	"github.com/andresuchdata/restock-engine/internal/drive"
	"github.com/andresuchdata/restock-engine/internal/repository/postgres"
	"github.com/andresuchdata/restock-engine/internal/seed"
	"github.com/andresuchdata/restock-engine/internal/storage"
	"github.com/andresuchdata/restock-engine/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (falls back to DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func newBatchSizeFlag() *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "batch-size",
		Usage: "Rows per upsert batch",
		Value: 500,
	}
}

func initDB(c *cli.Context) error {
	cfg := config.Load()

	var db *postgres.DB
	if url := c.String("db-url"); url != "" {
		conn, err := sqlx.Connect("pgx", url)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		db = postgres.Wrap(conn, cfg.Database.MaxTx)
	} else {
		var err error
		db, err = postgres.NewDB(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	if err := postgres.EnsureSchema(c.Context, db.DB); err != nil {
		db.Close()
		return err
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func loaderFrom(c *cli.Context) *seed.Loader {
	db := c.Context.Value(dbKey).(*postgres.DB)
	return seed.NewLoader(postgres.NewStore(db), c.Int("batch-size"))
}

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)

	app := &cli.App{
		Name:  "seed",
		Usage: "Load reference data and starting inventory",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the inventory schema if it does not exist",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					logger.Log.Info().Msg("Schema is up to date")
					return nil
				},
			},
			{
				Name:  "load",
				Usage: "Load seed files from a local directory",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newBatchSizeFlag(),
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing the seed files",
						Value:   cfg.App.DataDir,
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					summary, err := loaderFrom(c).LoadDir(c.Context, c.String("data-dir"))
					if err != nil {
						return err
					}
					return finish(c.Context, cfg, summary)
				},
			},
			{
				Name:  "s3",
				Usage: "Download seed files from object storage and load them",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newBatchSizeFlag(),
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object key prefix holding the seed files",
						Value: cfg.Storage.SeedPrefix,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					client, err := storage.NewS3Client(cfg.Storage)
					if err != nil {
						return err
					}

					dir, err := os.MkdirTemp("", "restock-seed-")
					if err != nil {
						return fmt.Errorf("failed to create temp dir: %w", err)
					}
					defer os.RemoveAll(dir)

					paths, err := storage.FetchFiles(c.Context, client, c.String("prefix"), dir, seed.Files)
					if err != nil {
						return err
					}
					logger.Log.Info().Int("files", len(paths)).Str("bucket", cfg.Storage.Bucket).Msg("Downloaded seed files")

					summary, err := loaderFrom(c).LoadDir(c.Context, dir)
					if err != nil {
						return err
					}
					return finish(c.Context, cfg, summary)
				},
			},
			{
				Name:  "drive",
				Usage: "Stream seed files from a Google Drive folder",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newBatchSizeFlag(),
					&cli.StringFlag{
						Name:  "folder",
						Usage: "Drive folder path, e.g. seeds/2026-10",
						Value: cfg.Drive.FolderPath,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					if cfg.Drive.CredentialsJSON == "" {
						return fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON is not set")
					}
					driveService, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
					if err != nil {
						return err
					}

					summary, err := drive.NewIngestService(driveService, loaderFrom(c)).IngestFolder(c.Context, c.String("folder"))
					if err != nil {
						return err
					}
					return finish(c.Context, cfg, summary)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// finish logs the load and drops cached forecasts, which were computed
// from the previous baselines.
func finish(ctx context.Context, cfg *config.Config, summary seed.Summary) error {
	logger.Log.Info().
		Int("products", summary.Products).
		Int("stores", summary.Stores).
		Int("inventory", summary.Inventory).
		Int("transfer_history", summary.TransferHistory).
		Msg("Seeding completed")

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Skipping forecast cache invalidation")
		return nil
	}
	if err := forecastCache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to invalidate forecast cache: %w", err)
	}
	return nil
}
