// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	DBPath         string
	ContentDir     string
	ReaderStateTTL time.Duration
	SweepInterval  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	ttlHours := getEnvInt("READER_STATE_TTL_HOURS", 24*30)
	if ttlHours <= 0 {
		ttlHours = 24 * 30
	}
	sweepMinutes := getEnvInt("SWEEP_INTERVAL_MINUTES", 60)
	if sweepMinutes <= 0 {
		sweepMinutes = 60
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/stepwise.db"),
		ContentDir:     getEnv("CONTENT_DIR", "./content"),
		ReaderStateTTL: time.Duration(ttlHours) * time.Hour,
		SweepInterval:  time.Duration(sweepMinutes) * time.Minute,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ContentDir == "" {
		return fmt.Errorf("CONTENT_DIR cannot be empty")
	}
	if c.ReaderStateTTL <= 0 {
		return fmt.Errorf("READER_STATE_TTL_HOURS must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_MINUTES must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
