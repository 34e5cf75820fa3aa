package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/LizBugFree/network-monitor-demo/internal/pkg/validator"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	GCP       GCPConfig
	Collector CollectorConfig
	Scheduler SchedulerConfig
	Archive   ArchiveConfig
	Export    ExportConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int           `env:"SERVER_PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
	RateLimitRPS    float64 `env:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst  int     `env:"RATE_LIMIT_BURST" validate:"gte=1"`
}

// DatabaseConfig contains document store configuration
type DatabaseConfig struct {
	Driver          string `env:"DB_DRIVER" validate:"oneof=sqlite postgres memory"`
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string `env:"DB_PATH" validate:"required_if=Driver sqlite"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string `env:"LOG_FORMAT" validate:"oneof=json console"`
	OutputPath string
}

// GCPConfig contains the upstream API settings. ProjectID may be empty at
// load time; triggers reject the request instead of failing startup.
type GCPConfig struct {
	ProjectID       string
	CredentialsFile string
	CallTimeout     time.Duration `env:"GCP_CALL_TIMEOUT" validate:"gt=0"`
	RequestsPerSec  float64       `env:"GCP_API_QPS" validate:"gt=0"`
	Burst           int           `env:"GCP_API_BURST" validate:"gte=1"`
}

// CollectorConfig tunes a single collection cycle
type CollectorConfig struct {
	Parallel          bool
	RegionConcurrency int           `env:"COLLECTOR_REGION_CONCURRENCY" validate:"gte=1"`
	BatchSize         int           `env:"PERSIST_BATCH_SIZE" validate:"gte=1,lte=500"`
	CycleTimeout      time.Duration `env:"CYCLE_TIMEOUT" validate:"gt=0"`
}

// SchedulerConfig contains the periodic collection schedules
type SchedulerConfig struct {
	Enabled         bool
	NetworkSchedule string
	MetricsSchedule string
	MetricsDuration int `env:"METRICS_SCHEDULE_DURATION" validate:"gte=5,lte=1440"`
}

// ArchiveConfig enables copying each network snapshot to Cloud Storage
type ArchiveConfig struct {
	Bucket string
}

// ExportConfig enables streaming metric points into BigQuery
type ExportConfig struct {
	BigQueryDataset string
	BigQueryTable   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", getEnvAsInt("PORT", 8080)),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 5),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "network_monitor"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./network-monitor.db"),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		GCP: GCPConfig{
			ProjectID:       ProjectIDFromEnv(),
			CredentialsFile: getEnv("GCP_CREDENTIALS_FILE", ""),
			CallTimeout:     getEnvAsDuration("GCP_CALL_TIMEOUT", 30*time.Second),
			RequestsPerSec:  getEnvAsFloat("GCP_API_QPS", 10),
			Burst:           getEnvAsInt("GCP_API_BURST", 20),
		},
		Collector: CollectorConfig{
			Parallel:          getEnvAsBool("COLLECTOR_PARALLEL", true),
			RegionConcurrency: getEnvAsInt("COLLECTOR_REGION_CONCURRENCY", 4),
			BatchSize:         getEnvAsInt("PERSIST_BATCH_SIZE", 450),
			CycleTimeout:      getEnvAsDuration("CYCLE_TIMEOUT", 5*time.Minute),
		},
		Scheduler: SchedulerConfig{
			Enabled:         getEnvAsBool("SCHEDULER_ENABLED", false),
			NetworkSchedule: getEnv("NETWORK_SCHEDULE", "*/30 * * * *"),
			MetricsSchedule: getEnv("METRICS_SCHEDULE", "*/15 * * * *"),
			MetricsDuration: getEnvAsInt("METRICS_SCHEDULE_DURATION", 60),
		},
		Archive: ArchiveConfig{
			Bucket: getEnv("SNAPSHOT_ARCHIVE_BUCKET", ""),
		},
		Export: ExportConfig{
			BigQueryDataset: getEnv("BIGQUERY_DATASET", ""),
			BigQueryTable:   getEnv("BIGQUERY_TABLE", "network_metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ProjectIDFromEnv resolves the project the same way Cloud Functions expose it
func ProjectIDFromEnv() string {
	if id := os.Getenv("GCP_PROJECT"); id != "" {
		return id
	}
	return os.Getenv("GOOGLE_CLOUD_PROJECT")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
