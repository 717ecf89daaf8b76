package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/andresuchdata/restock-engine/internal/engine"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Cache     CacheConfig
	Inventory InventoryConfig
	Forecast  ForecastConfig
	Engine    EngineConfig
	Storage   StorageConfig
	Drive     DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	LogFormat      string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxTx    int64
}

type AppConfig struct {
	DataDir   string
	ExportDir string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// InventoryConfig selects the state store backend.
type InventoryConfig struct {
	Backend          string // memory | postgres
	SeedDir          string
	StoreTimeoutMS   int
	BatchConcurrency int
}

func (c InventoryConfig) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

type ForecastConfig struct {
	Endpoint  string
	TimeoutMS int
}

func (c ForecastConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

type EngineConfig struct {
	SafetyFactor            float64
	ReorderPaddingDays      int
	ReliabilityPenalty      float64
	StockingWindowDays      int
	MaxTransferKm           float64
	MaxTransferCost         float64
	TransferFixedFee        float64
	TransferCostPerKm       float64
	TransferCostPerUnit     float64
	HighViabilityScore      float64
	MediumViabilityScore    float64
	HighPriorityFeasibility float64
	SmallDeviationRatio     float64
	HoldingCostRate         float64
	MarkdownRate            float64
	OrderFixedCost          float64
	DefaultMarginRate       float64
	LowStockDaysLeft        float64
	OverstockMultiplier     float64
	OverstockDays           int
	PlanConcurrency         int
}

// Policy converts the env-driven settings into the engine's policy.
func (c EngineConfig) Policy() engine.Policy {
	return engine.Policy{
		SafetyFactor:            c.SafetyFactor,
		ReorderPaddingDays:      c.ReorderPaddingDays,
		ReliabilityPenalty:      c.ReliabilityPenalty,
		StockingWindowDays:      c.StockingWindowDays,
		MaxTransferKm:           c.MaxTransferKm,
		MaxTransferCost:         c.MaxTransferCost,
		TransferFixedFee:        c.TransferFixedFee,
		TransferCostPerKm:       c.TransferCostPerKm,
		TransferCostPerUnit:     c.TransferCostPerUnit,
		HighViabilityScore:      c.HighViabilityScore,
		MediumViabilityScore:    c.MediumViabilityScore,
		HighPriorityFeasibility: c.HighPriorityFeasibility,
		SmallDeviationRatio:     c.SmallDeviationRatio,
		HoldingCostRate:         c.HoldingCostRate,
		MarkdownRate:            c.MarkdownRate,
		OrderFixedCost:          c.OrderFixedCost,
		DefaultMarginRate:       c.DefaultMarginRate,
		LowStockDaysLeft:        c.LowStockDaysLeft,
		OverstockMultiplier:     c.OverstockMultiplier,
		OverstockDays:           c.OverstockDays,
	}
}

// StorageConfig points at an S3-compatible bucket used for seed files and
// report exports.
type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	ExportPrefix string
	SeedPrefix   string
}

type DriveConfig struct {
	CredentialsJSON string
	FolderPath      string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		SetDefaults(v)
		v.AutomaticEnv()

		ensureDir(v.GetString("APP_DATA_DIR"))
		ensureDir(v.GetString("APP_EXPORT_DIR"))

		instance = FromViper(v)
	})

	return instance
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "restock")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_TX", 10)

	v.SetDefault("APP_DATA_DIR", "./data/seeds")
	v.SetDefault("APP_EXPORT_DIR", "./data/exports")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)

	v.SetDefault("INVENTORY_BACKEND", "postgres")
	v.SetDefault("INVENTORY_SEED_DIR", "")
	v.SetDefault("STORE_TIMEOUT_MS", 2000)
	v.SetDefault("BATCH_CONCURRENCY", 8)

	v.SetDefault("FORECAST_ENDPOINT", "")
	v.SetDefault("FORECAST_TIMEOUT_MS", 5000)

	v.SetDefault("ENGINE_SAFETY_FACTOR", 1.0)
	v.SetDefault("ENGINE_REORDER_PADDING_DAYS", 7)
	v.SetDefault("ENGINE_RELIABILITY_PENALTY", 1.5)
	v.SetDefault("ENGINE_STOCKING_WINDOW_DAYS", 30)
	v.SetDefault("ENGINE_MAX_TRANSFER_KM", 500.0)
	v.SetDefault("ENGINE_MAX_TRANSFER_COST", 1000.0)
	v.SetDefault("ENGINE_TRANSFER_FIXED_FEE", 25.0)
	v.SetDefault("ENGINE_TRANSFER_COST_PER_KM", 1.2)
	v.SetDefault("ENGINE_TRANSFER_COST_PER_UNIT", 0.15)
	v.SetDefault("ENGINE_HIGH_VIABILITY_SCORE", 70.0)
	v.SetDefault("ENGINE_MEDIUM_VIABILITY_SCORE", 40.0)
	v.SetDefault("ENGINE_HIGH_PRIORITY_FEASIBILITY", 70.0)
	v.SetDefault("ENGINE_SMALL_DEVIATION_RATIO", 0.10)
	v.SetDefault("ENGINE_HOLDING_COST_RATE", 0.20)
	v.SetDefault("ENGINE_MARKDOWN_RATE", 0.25)
	v.SetDefault("ENGINE_ORDER_FIXED_COST", 15.0)
	v.SetDefault("ENGINE_DEFAULT_MARGIN_RATE", 0.30)
	v.SetDefault("ENGINE_LOW_STOCK_DAYS_LEFT", 7.0)
	v.SetDefault("ENGINE_OVERSTOCK_MULTIPLIER", 3.0)
	v.SetDefault("ENGINE_OVERSTOCK_DAYS", 30)
	v.SetDefault("ENGINE_PLAN_CONCURRENCY", 8)

	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_EXPORT_PREFIX", "exports/")
	v.SetDefault("STORAGE_SEED_PREFIX", "seeds/")

	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("GOOGLE_DRIVE_FOLDER_PATH", "")
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			LogFormat:      v.GetString("LOG_FORMAT"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxTx:    v.GetInt64("DB_MAX_TX"),
		},
		App: AppConfig{
			DataDir:   v.GetString("APP_DATA_DIR"),
			ExportDir: v.GetString("APP_EXPORT_DIR"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			ForecastTTLSeconds: v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Inventory: InventoryConfig{
			Backend:          v.GetString("INVENTORY_BACKEND"),
			SeedDir:          v.GetString("INVENTORY_SEED_DIR"),
			StoreTimeoutMS:   v.GetInt("STORE_TIMEOUT_MS"),
			BatchConcurrency: v.GetInt("BATCH_CONCURRENCY"),
		},
		Forecast: ForecastConfig{
			Endpoint:  v.GetString("FORECAST_ENDPOINT"),
			TimeoutMS: v.GetInt("FORECAST_TIMEOUT_MS"),
		},
		Engine: EngineConfig{
			SafetyFactor:            v.GetFloat64("ENGINE_SAFETY_FACTOR"),
			ReorderPaddingDays:      v.GetInt("ENGINE_REORDER_PADDING_DAYS"),
			ReliabilityPenalty:      v.GetFloat64("ENGINE_RELIABILITY_PENALTY"),
			StockingWindowDays:      v.GetInt("ENGINE_STOCKING_WINDOW_DAYS"),
			MaxTransferKm:           v.GetFloat64("ENGINE_MAX_TRANSFER_KM"),
			MaxTransferCost:         v.GetFloat64("ENGINE_MAX_TRANSFER_COST"),
			TransferFixedFee:        v.GetFloat64("ENGINE_TRANSFER_FIXED_FEE"),
			TransferCostPerKm:       v.GetFloat64("ENGINE_TRANSFER_COST_PER_KM"),
			TransferCostPerUnit:     v.GetFloat64("ENGINE_TRANSFER_COST_PER_UNIT"),
			HighViabilityScore:      v.GetFloat64("ENGINE_HIGH_VIABILITY_SCORE"),
			MediumViabilityScore:    v.GetFloat64("ENGINE_MEDIUM_VIABILITY_SCORE"),
			HighPriorityFeasibility: v.GetFloat64("ENGINE_HIGH_PRIORITY_FEASIBILITY"),
			SmallDeviationRatio:     v.GetFloat64("ENGINE_SMALL_DEVIATION_RATIO"),
			HoldingCostRate:         v.GetFloat64("ENGINE_HOLDING_COST_RATE"),
			MarkdownRate:            v.GetFloat64("ENGINE_MARKDOWN_RATE"),
			OrderFixedCost:          v.GetFloat64("ENGINE_ORDER_FIXED_COST"),
			DefaultMarginRate:       v.GetFloat64("ENGINE_DEFAULT_MARGIN_RATE"),
			LowStockDaysLeft:        v.GetFloat64("ENGINE_LOW_STOCK_DAYS_LEFT"),
			OverstockMultiplier:     v.GetFloat64("ENGINE_OVERSTOCK_MULTIPLIER"),
			OverstockDays:           v.GetInt("ENGINE_OVERSTOCK_DAYS"),
			PlanConcurrency:         v.GetInt("ENGINE_PLAN_CONCURRENCY"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("STORAGE_ENDPOINT"),
			AccessKey:    v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:    v.GetString("STORAGE_SECRET_KEY"),
			Bucket:       v.GetString("STORAGE_BUCKET"),
			Region:       v.GetString("STORAGE_REGION"),
			UseSSL:       v.GetBool("STORAGE_USE_SSL"),
			ExportPrefix: v.GetString("STORAGE_EXPORT_PREFIX"),
			SeedPrefix:   v.GetString("STORAGE_SEED_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderPath:      v.GetString("GOOGLE_DRIVE_FOLDER_PATH"),
		},
	}
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
