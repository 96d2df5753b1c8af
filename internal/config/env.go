package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// MinSigningSecretLength is the minimum HS512 key size in bytes (512 bits)
const MinSigningSecretLength = 64

var (
	// ErrSigningSecretRequired is returned when production starts without JWT_SECRET
	ErrSigningSecretRequired = errors.New("signing secret is required in production environment")
	// ErrSigningSecretTooShort is returned when JWT_SECRET is shorter than 512 bits
	ErrSigningSecretTooShort = fmt.Errorf("signing secret must be at least %d bytes", MinSigningSecretLength)
)

// EnvironmentType represents the application environment
type EnvironmentType string

const (
	EnvironmentDevelopment EnvironmentType = "development"
	EnvironmentProduction  EnvironmentType = "production"
)

// String returns the string representation of the environment type
func (e EnvironmentType) String() string {
	return string(e)
}

// IsValid checks if the environment type is valid
func (e EnvironmentType) IsValid() bool {
	switch e {
	case EnvironmentDevelopment, EnvironmentProduction:
		return true
	default:
		return false
	}
}

// Environment holds the environment variables
type Environment struct {
	Environment EnvironmentType `env:"ENVIRONMENT"`
	ConfigPath  string          `env:"CONFIG_PATH"`
	JWTSecret   string          `env:"JWT_SECRET"`
}

// LoadEnv loads the environment variables, reading a .env file first when present.
// Variables already set in the process environment win over the file.
func LoadEnv() *Environment {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to read .env file", "error", err)
	}

	envStr := getEnv("ENVIRONMENT", string(EnvironmentDevelopment))
	envStr = strings.TrimSpace(envStr)
	envStr = strings.ToLower(envStr)
	envType := EnvironmentType(envStr)

	if !envType.IsValid() {
		envType = EnvironmentDevelopment
	}

	return &Environment{
		Environment: envType,
		ConfigPath:  getEnv("CONFIG_PATH", "config.yaml"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
	}
}

// getEnv gets the environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// LoadSigningSecret returns the symmetric key used to sign access tokens.
// If secret is empty and environment is production, returns an error.
// If secret is empty and environment is development, generates an ephemeral key,
// so every restart invalidates previously issued access tokens.
func LoadSigningSecret(secret string, env EnvironmentType) ([]byte, error) {
	if secret == "" {
		if env == EnvironmentProduction {
			return nil, ErrSigningSecretRequired
		}

		key := make([]byte, MinSigningSecretLength)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate signing secret: %w", err)
		}
		return key, nil
	}

	if len(secret) < MinSigningSecretLength {
		return nil, ErrSigningSecretTooShort
	}

	return []byte(secret), nil
}
