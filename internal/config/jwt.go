package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// defaultTokenLifetimeHours is used when JWT_EXPIRATION_HOURS is unset
const defaultTokenLifetimeHours = 24

// JWTConfig holds the session token signing secret and lifetime
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig builds the token configuration from JWT_SECRET (required)
// and JWT_EXPIRATION_HOURS (default 24)
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required but not set")
	}

	hours := defaultTokenLifetimeHours
	if raw := os.Getenv("JWT_EXPIRATION_HOURS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS %q: %w", raw, err)
		}
		hours = parsed
	}
	if hours < 1 {
		return nil, fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1, got %d", hours)
	}

	return &JWTConfig{Secret: secret, ExpirationHours: hours}, nil
}
