// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration, constructed per run and
// passed explicitly through the pipeline stages.
type Config struct {
	MySQL *MySQLConfig

	// Import settings
	ChunkSize int

	// Backup settings
	BackupDir string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from a .env file (when present) and
// environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &Config{
		ChunkSize: getEnvAsInt("CHUNK_SIZE", 50000),
		BackupDir: getEnv("BACKUP_DIR", "backups"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	dbConfig, err := LoadMySQLConfig()
	if err != nil {
		return nil, errors.New("failed to load MySQL configuration: " + err.Error())
	}
	cfg.MySQL = dbConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid.
func (c *Config) Validate() error {
	if c.MySQL == nil {
		return errors.New("mysql configuration is required")
	}

	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
