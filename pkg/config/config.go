package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Port        string
	DatabaseURL string
	TokenSecret string
	TokenTTL    time.Duration
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	tokenSecret := os.Getenv("TOKEN_AUTH_SECRET")
	if tokenSecret == "" {
		return nil, errors.New("TOKEN_AUTH_SECRET is required")
	}

	return &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		DatabaseURL: databaseURL,
		TokenSecret: tokenSecret,
		TokenTTL:    getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
	}, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
