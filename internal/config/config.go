// Package config loads application settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration
type Config struct {
	// Server
	Env      string
	Port     string
	LogLevel string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Password hashing
	BcryptCost int

	// Metrics endpoint; empty disables /metrics
	MetricsAPIKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found, using process environment")
	}

	config := &Config{
		// Server
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", DriverPostgres),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "fintrack"),
		DBPassword: getEnv("DB_PASSWORD", "fintrack"),
		DBName:     getEnv("DB_NAME", "fintrack"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBPath:     getEnv("DB_PATH", "fintrack.db"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),
	}

	if config.DBDriver != DriverPostgres && config.DBDriver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use %s or %s)", config.DBDriver, DriverPostgres, DriverSQLite)
	}

	if config.JWTSecret == "" {
		if config.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		logger.Get().Warn("JWT_SECRET not set, using an insecure development secret")
		config.JWTSecret = "fallback-secret-key-for-dev-only"
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "15m")
	expDur, err := time.ParseDuration(expStr)
	if err != nil || expDur <= 0 {
		logger.Get().Warnf("invalid JWT_EXPIRES_IN value '%s', falling back to 15m", expStr)
		expDur = 15 * time.Minute
	}
	config.JWTExpirationDur = expDur

	costStr := getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost))
	cost, err := strconv.Atoi(costStr)
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid BCRYPT_COST %q: must be between %d and %d", costStr, bcrypt.MinCost, bcrypt.MaxCost)
	}
	config.BcryptCost = cost

	return config, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
