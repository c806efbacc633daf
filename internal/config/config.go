package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Finance backend
	APIURL      string
	APIPrefix   string
	HTTPTimeout time.Duration

	// Route resolution
	RoutesFile     string
	RouteCacheTTL  time.Duration
	RouteCacheSize int
	ProbeTimeout   time.Duration

	// Route store selection
	RouteStore   string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP
	AMQPURL      string
	AMQPExchange string

	// Diagnostics HTTP server
	Port          string
	DiagRateLimit int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		APIURL:      getEnv("FINANCE_API_URL", ""),
		APIPrefix:   getEnv("FINANCE_API_PREFIX", ""),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		RoutesFile:     getEnv("ROUTES_FILE", ""),
		RouteCacheTTL:  getEnvDuration("ROUTE_CACHE_TTL", 0),
		RouteCacheSize: getEnvInt("ROUTE_CACHE_SIZE", 128),
		ProbeTimeout:   getEnvDuration("PROBE_TIMEOUT", 0),

		RouteStore:   getEnv("ROUTE_STORE", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finance.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finance"),

		Port:          getEnv("DIAG_PORT", "8081"),
		DiagRateLimit: getEnvInt("DIAG_RATE_LIMIT", 30),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid.
// An empty API URL is accepted: resolution then fails at call time.
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DiagRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid diagnostics rate limit %d: must not be negative", c.DiagRateLimit))
	}

	// Validate API URL if provided
	if c.APIURL != "" {
		if parsedURL, err := url.Parse(strings.TrimSpace(c.APIURL)); err != nil {
			errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		} else if parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API URL '%s': missing host", c.APIURL))
		}
	}

	// Validate route store
	validStores := []string{"memory", "sqlite", "postgres"}
	isValidStore := false
	for _, store := range validStores {
		if c.RouteStore == store {
			isValidStore = true
			break
		}
	}
	if !isValidStore {
		errors = append(errors, fmt.Sprintf("invalid route store '%s': must be one of %v", c.RouteStore, validStores))
	}

	if c.RouteStore == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite route store")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.RouteStore == "postgres" {
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres route store")
		} else if parsedURL, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid database URL: %v", err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid database URL scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}

	if c.RoutesFile != "" {
		if _, err := os.Stat(c.RoutesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("routes file does not exist: %s", c.RoutesFile))
		}
	}

	// Validate resolution tuning
	if c.RouteCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid route cache TTL %v: must not be negative", c.RouteCacheTTL))
	}
	if c.RouteCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid route cache size %d: must be at least 1", c.RouteCacheSize))
	} else if c.RouteCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid route cache size %d: must be at most 10000", c.RouteCacheSize))
	}
	if c.ProbeTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid probe timeout %v: must not be negative", c.ProbeTimeout))
	}
	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate logging
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
