// Package config provides configuration loading and validation from the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the service configuration. Values come from environment
// variables, with a .env file loaded by the CLI entrypoint beforehand.
type Config struct {
	Port         int    // HTTP listen port (PORT, default 8080)
	DatabaseURL  string // PostgreSQL connection URL (DATABASE_URL)
	GeminiAPIKey string // Gemini API key (GEMINI_API_KEY)
	Verbose      bool   // Detailed logging (VERBOSE)
}

// Load reads the service configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         8080,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Verbose:      os.Getenv("VERBOSE") == "true" || os.Getenv("VERBOSE") == "1",
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: port out of range: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required but not set")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required but not set")
	}
	return nil
}
