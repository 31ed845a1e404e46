package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// TAJ utilities backend
	TajAPIURL   string
	TajAPIToken string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string // empty disables tracing export

	// JWT / Auth
	JWTSecret string // empty leaves /v1 open

	// Billing policy
	LateSurchargeRate float64
	GracePeriodDays   int
	BillingTimezone   string
	BankAccountNo     string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		TajAPIURL:   getEnv("TAJ_API_URL", "http://localhost:5001/api"),
		TajAPIToken: getEnv("TAJ_API_TOKEN", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 16),

		CacheTTL: getEnvDuration("CACHE_TTL", 2*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		LateSurchargeRate: getEnvFloat("LATE_SURCHARGE_RATE", 0.10),
		GracePeriodDays:   getEnvInt("GRACE_PERIOD_DAYS", 0),
		BillingTimezone:   getEnv("BILLING_TIMEZONE", "Asia/Karachi"),
		BankAccountNo:     getEnv("BANK_ACCOUNT_NO", ""),
	}
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.TajAPIURL == "" {
		return fmt.Errorf("TAJ_API_URL is required")
	}
	if c.LateSurchargeRate < 0 || c.LateSurchargeRate > 1 {
		return fmt.Errorf("LATE_SURCHARGE_RATE must be between 0 and 1, got %v", c.LateSurchargeRate)
	}
	if c.GracePeriodDays < 0 {
		return fmt.Errorf("GRACE_PERIOD_DAYS must not be negative")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("MAX_CONCURRENCY must be at least 1")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves BillingTimezone. Empty means the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.BillingTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.BillingTimezone)
	if err != nil {
		return nil, fmt.Errorf("BILLING_TIMEZONE %q: %w", c.BillingTimezone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
