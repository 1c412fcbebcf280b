// Package config loads the faktura CLI configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xraph/faktura/cmd/faktura/internal/logger"
)

// Store drivers the CLI can open.
const (
	DriverMemory    = "memory"
	DriverFirestore = "firestore"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverMongo     = "mongo"
)

type Config struct {
	// Storage
	Driver           string
	DSN              string
	PoolSize         int
	MongoDatabase    string
	FirestoreProject string

	// Numbering
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTP
	HTTPAddr string
	BasePath string

	// Ledger export targets
	ExportDir string
	S3Bucket  string
	S3Prefix  string
	S3Region  string

	// Engine defaults
	DefaultCurrency  string
	DefaultLocale    string
	PaymentTermDays  int
	OverheadPct      float64
	SweepConcurrency int

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from environment variables and validates it.
func Load() (*Config, error) {
	var errs []error
	c := &Config{
		Driver:           getEnv("FAKTURA_DRIVER", DriverMemory),
		DSN:              getEnv("FAKTURA_DSN", ""),
		PoolSize:         getEnvInt("FAKTURA_DB_POOL_SIZE", 0, &errs),
		MongoDatabase:    getEnv("FAKTURA_MONGO_DATABASE", ""),
		FirestoreProject: getEnv("FAKTURA_FIRESTORE_PROJECT", os.Getenv("GOOGLE_CLOUD_PROJECT")),
		RedisAddr:        getEnv("FAKTURA_REDIS_ADDR", ""),
		RedisPassword:    getEnv("FAKTURA_REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("FAKTURA_REDIS_DB", 0, &errs),
		HTTPAddr:         getEnv("FAKTURA_HTTP_ADDR", ":8080"),
		BasePath:         getEnv("FAKTURA_BASE_PATH", "/"),
		ExportDir:        getEnv("FAKTURA_EXPORT_DIR", "exports"),
		S3Bucket:         getEnv("FAKTURA_S3_BUCKET", ""),
		S3Prefix:         getEnv("FAKTURA_S3_PREFIX", "ledger"),
		S3Region:         getEnv("FAKTURA_S3_REGION", os.Getenv("AWS_REGION")),
		DefaultCurrency:  getEnv("FAKTURA_CURRENCY", "eur"),
		DefaultLocale:    getEnv("FAKTURA_LOCALE", "de"),
		PaymentTermDays:  getEnvInt("FAKTURA_PAYMENT_TERM_DAYS", 14, &errs),
		OverheadPct:      getEnvFloat("FAKTURA_OVERHEAD_PCT", 10, &errs),
		SweepConcurrency: getEnvInt("FAKTURA_SWEEP_CONCURRENCY", 8, &errs),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:    getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:        getEnv("LOG_OUTPUT", "stderr"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory:
	case DriverFirestore:
		if c.FirestoreProject == "" {
			return errors.New("FAKTURA_FIRESTORE_PROJECT is required for the firestore driver")
		}
	case DriverSQLite, DriverPostgres, DriverMongo:
		if c.DSN == "" {
			return fmt.Errorf("FAKTURA_DSN is required for the %s driver", c.Driver)
		}
	default:
		return fmt.Errorf("FAKTURA_DRIVER %q is not one of memory, sqlite, postgres, mongo, firestore", c.Driver)
	}
	if c.PoolSize < 0 {
		return errors.New("FAKTURA_DB_POOL_SIZE must not be negative")
	}
	if c.PaymentTermDays < 0 {
		return errors.New("FAKTURA_PAYMENT_TERM_DAYS must not be negative")
	}
	if c.OverheadPct < 0 {
		return errors.New("FAKTURA_OVERHEAD_PCT must not be negative")
	}
	if c.SweepConcurrency < 1 {
		return errors.New("FAKTURA_SWEEP_CONCURRENCY must be at least 1")
	}
	return nil
}

// Persistent reports whether documents survive the process.
func (c *Config) Persistent() bool { return c.Driver != DriverMemory }

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64, errs *[]error) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return f
}
