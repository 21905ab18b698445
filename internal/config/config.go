// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, timeouts, and feature flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultGraphAPIBaseURL is the production Meta Graph API endpoint.
const DefaultGraphAPIBaseURL = "https://graph.facebook.com/v19.0"

// Config holds all application configuration
type Config struct {
	// WhatsApp Cloud API Configuration
	WhatsAppToken         string // Bearer token for the Graph API
	WhatsAppPhoneNumberID string // Sending phone number ID (Graph API path component)
	WhatsAppPhoneNumber   string // Bot's public phone number, used in wa.me deep links
	VerifyToken           string // Shared secret echoed during webhook verification
	AppSecret             string // Meta app secret for X-Hub-Signature-256 validation (empty = skip)

	GraphAPIBaseURL  string        // Graph API base URL (override for tests)
	TransportTimeout time.Duration // HTTP timeout for outbound Graph API calls

	// LLM Configuration
	GeminiAPIKey string // Gemini API key for coupon extraction (primary provider)
	GeminiModel  string // Gemini model name
	GroqAPIKey   string // Groq API key (OpenAI-compatible fallback provider)
	GroqModel    string // Groq model name

	ExtractionTimeout   time.Duration // Timeout per extraction request
	ExtractionRetries   int           // Max attempts per extraction model
	ExtractionMinLength int           // Texts at or below this rune count are never extracted

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	WebhookTimeout  time.Duration // Timeout for processing a single inbound event

	// Data Configuration
	DataDir string // Data directory for the SQLite database

	// Rate Limits (token bucket, per user)
	UserRateBurst  float64
	UserRateRefill float64 // tokens per second

	// Background Jobs
	ExpiryReminderEnabled  bool
	ExpiryReminderInterval time.Duration
	ExpiryReminderDays     int // Remind about coupons expiring within this many days

	// R2 Backup Feature
	R2Enabled         bool
	R2Endpoint        string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2SnapshotKey     string
	SnapshotInterval  time.Duration

	// Sentry Feature
	SentryEnabled     bool
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Feature
	BetterStackToken    string
	BetterStackEndpoint string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		WhatsAppToken:         getEnv(EnvWhatsAppToken, ""),
		WhatsAppPhoneNumberID: getEnv(EnvWhatsAppPhoneNumberID, ""),
		WhatsAppPhoneNumber:   getEnv(EnvWhatsAppPhoneNumber, ""),
		VerifyToken:           getEnv(EnvVerifyToken, ""),
		AppSecret:             getEnv(EnvAppSecret, ""),

		GraphAPIBaseURL:  getEnv(EnvGraphAPIBaseURL, DefaultGraphAPIBaseURL),
		TransportTimeout: getDurationEnv(EnvTransportTimeout, TransportRequest),

		GeminiAPIKey: getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:  getEnv(EnvGeminiModel, "gemini-2.5-flash-lite"),
		GroqAPIKey:   getEnv(EnvGroqAPIKey, ""),
		GroqModel:    getEnv(EnvGroqModel, "llama-3.3-70b-versatile"),

		ExtractionTimeout:   getDurationEnv(EnvExtractionTimeout, ExtractionRequest),
		ExtractionRetries:   getIntEnv(EnvExtractionRetries, 2),
		ExtractionMinLength: getIntEnv(EnvExtractionMinLength, 10),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		Port:            getEnv(EnvPort, "8080"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		WebhookTimeout:  getDurationEnv(EnvWebhookTimeout, WebhookProcessing),

		DataDir: getEnv(EnvDataDir, getDefaultDataDir()),

		UserRateBurst:  getFloatEnv(EnvUserRateBurst, 15.0),
		UserRateRefill: getFloatEnv(EnvUserRateRefill, 0.2), // 1 per 5s

		ExpiryReminderEnabled:  getBoolEnv(EnvExpiryReminderEnabled, true),
		ExpiryReminderInterval: getDurationEnv(EnvExpiryReminderInterval, ExpiryReminderInterval),
		ExpiryReminderDays:     getIntEnv(EnvExpiryReminderDays, 30),

		R2Enabled:         getBoolEnv(EnvR2Enabled, false),
		R2Endpoint:        getEnv(EnvR2Endpoint, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/coupons.db.zst"),
		SnapshotInterval:  getDurationEnv(EnvSnapshotInterval, SnapshotInterval),

		SentryEnabled:     getBoolEnv(EnvSentryEnabled, false),
		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.WhatsAppToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvWhatsAppToken))
	}
	if c.WhatsAppPhoneNumberID == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvWhatsAppPhoneNumberID))
	}
	if c.VerifyToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvVerifyToken))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.TransportTimeout <= 0 {
		errs = append(errs, fmt.Errorf("transport timeout must be positive, got %v", c.TransportTimeout))
	}
	if c.ExtractionMinLength < 0 {
		errs = append(errs, fmt.Errorf("extraction min length cannot be negative, got %d", c.ExtractionMinLength))
	}
	if c.R2Enabled {
		if c.R2Endpoint == "" || c.R2AccessKeyID == "" || c.R2SecretAccessKey == "" || c.R2BucketName == "" {
			errs = append(errs, errors.New("R2 backup enabled but endpoint/credentials/bucket incomplete"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "coupons.db")
}

// HasLLMProvider returns true if at least one extraction provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}
