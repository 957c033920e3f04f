// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultJWTSecret is rejected outside debug mode.
const DefaultJWTSecret = "change-me-in-production"

// Config holds all configuration for the application
type Config struct {
	// Server
	Host           string
	Port           int
	Debug          bool
	RequestTimeout time.Duration

	// Logging
	LogLevel string
	LogFile  string

	// Database
	DatabaseDriver string // sqlite3, pgx, postgres
	DatabaseURL    string
	DBMaxConns     int

	// Auth
	JWTSecret      string
	AccessTokenTTL time.Duration
	BcryptCost     int

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Events
	RabbitMQURL    string
	EventsExchange string
	OutboxPoll     time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads the same settings for command-line tools. Only the
// database settings are checked since tools never serve or sign tokens.
func LoadDatabase() (*Config, error) {
	cfg := fromEnv()
	if err := errors.Join(cfg.databaseErrors()...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnvInt("PORT", 8080),
		Debug:          getEnvBool("DEBUG", false),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getEnv("DATABASE_URL", "codemastery.db"),
		DBMaxConns:     getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:      getEnv("JWT_SECRET", DefaultJWTSecret),
		AccessTokenTTL: time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 30)) * time.Minute,
		BcryptCost:     getEnvInt("BCRYPT_COST", 0),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		EventsExchange: getEnv("EVENTS_EXCHANGE", "codemastery.events"),
		OutboxPoll:     time.Duration(getEnvInt("OUTBOX_POLL_SECONDS", 5)) * time.Second,
	}
}

// Validate checks settings that have no safe fallback
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == DefaultJWTSecret && !c.Debug {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT_SECONDS must be positive"))
	}
	if c.OutboxPoll <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_SECONDS must be positive"))
	}
	errs = append(errs, c.databaseErrors()...)
	return errors.Join(errs...)
}

func (c *Config) databaseErrors() []error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.DatabaseDriver {
	case "sqlite", "sqlite3", "pgx", "postgres", "pq":
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	return errs
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RelayEnabled reports whether outbox events are published to RabbitMQ
func (c *Config) RelayEnabled() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
