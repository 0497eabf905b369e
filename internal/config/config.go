package config

import (
	"os"
	"strconv"
	"time"

	"gojsd/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig   `validate:"required"`
	Compare  CompareConfig  `validate:"required"`
	Paths    PathConfig
}

// DatabaseConfig holds database connection settings. The database is
// optional: with no URL the system runs file-only and skips persistence.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// Enabled reports whether run persistence is configured
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	APIPort string
	GinMode string
}

// CompareConfig holds distance computation defaults
type CompareConfig struct {
	BinCount       int
	Alignment      string
	Parallelism    int
	FAMDComponents int
	FAMDBins       int
	FAMDMetric     string
	FAMDScale      string
}

// PathConfig holds file system paths
type PathConfig struct {
	SourcesFile string
	ExportDir   string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Compare:  loadCompareConfig(),
		Paths:    loadPathConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadCompareConfig() CompareConfig {
	return CompareConfig{
		BinCount:       getEnvIntOrDefault("BIN_COUNT", 10),
		Alignment:      getEnvOrDefault("DATE_ALIGNMENT", "exact"),
		Parallelism:    getEnvIntOrDefault("BATCH_PARALLELISM", 4),
		FAMDComponents: getEnvIntOrDefault("FAMD_COMPONENTS", 2),
		FAMDBins:       getEnvIntOrDefault("FAMD_BINS", 20),
		FAMDMetric:     getEnvOrDefault("FAMD_METRIC", "jsd"),
		FAMDScale:      getEnvOrDefault("FAMD_SCALE", "standard"),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		SourcesFile: getEnvOrDefault("SOURCES_FILE", ""),
		ExportDir:   getEnvOrDefault("EXPORT_DIR", "./exports"),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Compare.BinCount < 2 {
		return errors.ConfigInvalid("BIN_COUNT must be at least 2")
	}
	if config.Compare.Parallelism < 1 {
		return errors.ConfigInvalid("BATCH_PARALLELISM must be at least 1")
	}
	switch config.Compare.Alignment {
	case "exact", "nearest-prior":
	default:
		return errors.ConfigInvalid("DATE_ALIGNMENT must be 'exact' or 'nearest-prior'")
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

// Duration parsing helper (for future use)
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
