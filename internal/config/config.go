// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and staged exports (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// CacheTTL bounds how long computed coupling matrices stay reusable.
	CacheTTL time.Duration

	// RunRetentionDays prunes persisted runs older than this. 0 keeps
	// runs forever.
	RunRetentionDays int

	Archive *ArchiveConfig
}

// ArchiveConfig holds settings for exporting run archives to S3-compatible
// storage. The service stays disabled unless credentials are present.
type ArchiveConfig struct {
	Enabled         bool
	Endpoint        string // Custom endpoint, e.g. an R2 account URL
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int // Archives older than this are rotated out
	MinKeep         int // Never rotate below this many archives
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Resolve the data directory to an absolute path and make sure it exists
	// before anything opens a database under it.
	dataDir := getEnv("DECAY_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		CacheTTL:         time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 86400)) * time.Second,
		RunRetentionDays: getEnvAsInt("RUN_RETENTION_DAYS", 0),
		Archive:          loadArchiveConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive enabled but ARCHIVE_BUCKET is empty")
		}
		if c.Archive.AccessKeyID == "" || c.Archive.SecretAccessKey == "" {
			return fmt.Errorf("archive enabled but credentials are missing")
		}
	}
	return nil
}

// loadArchiveConfig reads the archive settings. The feature switches on only
// when explicitly enabled and credentialed.
func loadArchiveConfig() *ArchiveConfig {
	return &ArchiveConfig{
		Enabled:         getEnvAsBool("ARCHIVE_ENABLED", false),
		Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
		Region:          getEnv("ARCHIVE_REGION", "auto"),
		Bucket:          getEnv("ARCHIVE_BUCKET", ""),
		AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
		RetentionDays:   getEnvAsInt("ARCHIVE_RETENTION_DAYS", 30),
		MinKeep:         getEnvAsInt("ARCHIVE_MIN_KEEP", 5),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
