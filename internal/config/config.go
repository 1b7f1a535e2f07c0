// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config is everything the binaries need from the environment.
type Config struct {
	DatabaseURL string
	Port        string
	GCSBucket   string
	BQProject   string
	BQDataset   string
	LogLevel    string
}

// Load reads .env (if present) and then the environment. DATABASE_URL is the
// only required value; the warehouse mirror stays disabled unless BQ_PROJECT
// is set.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local dev.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        getenv("PORT", "3001"),
		GCSBucket:   os.Getenv("GCS_BUCKET"),
		BQProject:   os.Getenv("BQ_PROJECT"),
		BQDataset:   getenv("BQ_DATASET", "ledger"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is not set")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
