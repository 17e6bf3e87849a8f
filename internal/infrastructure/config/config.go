// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	params, err := cfg.Reconciliation.MatcherConfig()
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ofizant/conciliacion/internal/domain/matcher"
)

// Config represents the entire application configuration
type Config struct {
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Storage        StorageConfig        `yaml:"storage"`
	API            APIConfig            `yaml:"api"`
	Observability  ObservabilityConfig  `yaml:"observability"`
}

// ReconciliationConfig holds the default engine parameters
type ReconciliationConfig struct {
	DateToleranceDays int     `yaml:"date_tolerance_days"`
	MaxGroupSize      int     `yaml:"max_group_size"`
	Direction         string  `yaml:"direction"`
	AmountTolerance   float64 `yaml:"amount_tolerance"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath      string `yaml:"database_path"`
	RetentionDays     int    `yaml:"retention_days"`     // 0 disables the purge job
	RetentionSchedule string `yaml:"retention_schedule"` // cron spec, e.g. "@daily"
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when neither file nor environment
// set a value.
func Defaults() *Config {
	return &Config{
		Reconciliation: ReconciliationConfig{
			DateToleranceDays: 2,
			MaxGroupSize:      4,
			Direction:         string(matcher.LedgerToStatement),
		},
		Storage: StorageConfig{
			DatabasePath:      "conciliacion.db",
			RetentionDays:     90,
			RetentionSchedule: "@daily",
		},
		API: APIConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			MaxUploadMB:    32,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// Load reads and parses the config file. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${CONCILIACION_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	d := Defaults()
	return &Config{
		Reconciliation: ReconciliationConfig{
			DateToleranceDays: getEnvInt("CONCILIACION_DATE_TOLERANCE", d.Reconciliation.DateToleranceDays),
			MaxGroupSize:      getEnvInt("CONCILIACION_MAX_GROUP_SIZE", d.Reconciliation.MaxGroupSize),
			Direction:         getEnv("CONCILIACION_DIRECTION", d.Reconciliation.Direction),
			AmountTolerance:   getEnvFloat("CONCILIACION_AMOUNT_TOLERANCE", d.Reconciliation.AmountTolerance),
		},
		Storage: StorageConfig{
			DatabasePath:      getEnv("CONCILIACION_DB_PATH", d.Storage.DatabasePath),
			RetentionDays:     getEnvInt("CONCILIACION_RETENTION_DAYS", d.Storage.RetentionDays),
			RetentionSchedule: getEnv("CONCILIACION_RETENTION_SCHEDULE", d.Storage.RetentionSchedule),
		},
		API: APIConfig{
			Port:           getEnvInt("CONCILIACION_PORT", d.API.Port),
			AllowedOrigins: d.API.AllowedOrigins,
			MaxUploadMB:    getEnvInt("CONCILIACION_MAX_UPLOAD_MB", d.API.MaxUploadMB),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", d.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", d.Observability.Logging.Format),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// MatcherConfig converts the reconciliation section into validated engine
// parameters.
func (r ReconciliationConfig) MatcherConfig() (matcher.Config, error) {
	dir, err := matcher.ParseDirection(r.Direction)
	if err != nil {
		return matcher.Config{}, err
	}
	cfg := matcher.Config{
		DateTolerance:   r.DateToleranceDays,
		MaxGroupSize:    r.MaxGroupSize,
		Direction:       dir,
		AmountTolerance: r.AmountTolerance,
	}
	if err := cfg.Validate(); err != nil {
		return matcher.Config{}, err
	}
	return cfg, nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvFloat retrieves a float environment variable with a fallback default
func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		var result float64
		if _, err := fmt.Sscanf(val, "%g", &result); err == nil {
			return result
		}
	}
	return fallback
}
