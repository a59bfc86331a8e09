package config

import (
	"os"
	"strconv"
	"time"

	"trialstats/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Log       LogConfig
	Analysis  AnalysisConfig
	Metrics   MetricsConfig
	Analysers *Analysers
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string
}

// AnalysisConfig holds the statistics engine settings
type AnalysisConfig struct {
	Workers        int // <= 0 means one per CPU
	MarginZ        float64
	TrimProportion float64
}

// MetricsConfig holds the ops HTTP endpoint settings
type MetricsConfig struct {
	Addr    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it.
// The database URL is optional here; commands that need it call RequireDatabase.
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
			ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "INFO"),
		},
		Analysis: AnalysisConfig{
			Workers:        getEnvIntOrDefault("WORKERS", 0),
			MarginZ:        getEnvFloatOrDefault("MARGIN_Z", 2),
			TrimProportion: getEnvFloatOrDefault("TRIM_PROPORTION", 0.05),
		},
		Metrics: MetricsConfig{
			Addr:    getEnvOrDefault("METRICS_ADDR", ":9102"),
			Enabled: getEnvBoolOrDefault("METRICS_ENABLED", false),
		},
	}

	analysers, err := loadAnalysers(getEnvOrDefault("ANALYSERS_FILE", ""))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysers configuration")
	}
	config.Analysers = analysers

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// RequireDatabase fails when no database URL is configured
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	return nil
}

func loadAnalysers(path string) (*Analysers, error) {
	if path == "" {
		return DefaultAnalysers()
	}
	return LoadAnalysers(path)
}

func validateConfig(config *Config) error {
	if config.Analysis.MarginZ <= 0 {
		return errors.ConfigInvalid("MARGIN_Z must be positive")
	}
	if config.Analysis.TrimProportion < 0 || config.Analysis.TrimProportion >= 0.5 {
		return errors.ConfigInvalid("TRIM_PROPORTION must be in [0, 0.5)")
	}
	if config.Database.MaxOpenConns <= 0 {
		return errors.ConfigInvalid("DB_MAX_OPEN_CONNS must be positive")
	}
	if config.Metrics.Enabled && config.Metrics.Addr == "" {
		return errors.ConfigInvalid("METRICS_ADDR is required when metrics are enabled")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
