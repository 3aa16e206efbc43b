package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	DatabasePath string
	LogLevel     string

	// External auth provider (Supabase-compatible). Tokens on /api/1.0
	// routes are introspected against AuthURL. In DevMode the check is
	// bypassed and DevUserID is used instead.
	AuthURL        string
	AuthServiceKey string
	DevUserID      string

	// Base URL the dashboard layer uses to reach the backend API. Defaults
	// to this process's own listener so the service is self-contained, but
	// can point at a remote deployment.
	BackendBaseURL string

	// Market data
	QuoteCacheTTLSeconds int
	SnapshotSchedule     string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	port := getEnvAsInt("PORT", 8000)

	cfg := &Config{
		Port:                 port,
		DevMode:              getEnvAsBool("DEV_MODE", false),
		DatabasePath:         getEnv("DATABASE_PATH", "./data/oscillo.db"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		AuthURL:              getEnv("AUTH_URL", ""),
		AuthServiceKey:       getEnv("AUTH_SERVICE_KEY", ""),
		DevUserID:            getEnv("DEV_USER_ID", "dev-user"),
		BackendBaseURL:       getEnv("BACKEND_BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		QuoteCacheTTLSeconds: getEnvAsInt("QUOTE_CACHE_TTL_SECONDS", 60),
		SnapshotSchedule:     getEnv("SNAPSHOT_SCHEDULE", "@every 15m"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if !c.DevMode && c.AuthURL == "" {
		return fmt.Errorf("AUTH_URL is required unless DEV_MODE is enabled")
	}
	return nil
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
