// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/avoytenko/steeple/internal/blob"
)

// Config is the full service configuration, validated at load time.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// Timezone is the parish's local timezone; reminder hours and the
	// midnight rollover tick are pinned to it.
	Timezone string
	Location *time.Location

	// AdminTokenHash is the bcrypt hash of the admin API token. Empty
	// disables admin auth (local development only).
	AdminTokenHash string

	// RelayURL is the base URL of the push relay.
	RelayURL string

	S3 blob.Config
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:           getenv("STEEPLE_PORT", "8080"),
		DBPath:         getenv("STEEPLE_DB_PATH", "steeple.db"),
		LogLevel:       getenv("STEEPLE_LOG_LEVEL", "info"),
		LogFormat:      getenv("STEEPLE_LOG_FORMAT", "text"),
		Timezone:       getenv("STEEPLE_TIMEZONE", "Local"),
		AdminTokenHash: os.Getenv("STEEPLE_ADMIN_TOKEN_HASH"),
		RelayURL:       os.Getenv("STEEPLE_RELAY_URL"),
		S3: blob.Config{
			Endpoint:      os.Getenv("STEEPLE_S3_ENDPOINT"),
			Bucket:        os.Getenv("STEEPLE_S3_BUCKET"),
			Region:        getenv("STEEPLE_S3_REGION", "auto"),
			AccessKey:     os.Getenv("STEEPLE_S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("STEEPLE_S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("STEEPLE_S3_PUBLIC_URL"),
		},
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.RelayURL == "" {
		return Config{}, fmt.Errorf("STEEPLE_RELAY_URL is required")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
