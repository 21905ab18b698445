package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		WhatsAppToken:         "token",
		WhatsAppPhoneNumberID: "12345",
		VerifyToken:           "verify",
		Port:                  "8080",
		DataDir:               "/data",
		TransportTimeout:      TransportRequest,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing whatsapp token",
			mutate:  func(c *Config) { c.WhatsAppToken = "" },
			wantErr: EnvWhatsAppToken,
		},
		{
			name:    "missing phone number id",
			mutate:  func(c *Config) { c.WhatsAppPhoneNumberID = "" },
			wantErr: EnvWhatsAppPhoneNumberID,
		},
		{
			name:    "missing verify token",
			mutate:  func(c *Config) { c.VerifyToken = "" },
			wantErr: EnvVerifyToken,
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Port = "" },
			wantErr: "PORT is required",
		},
		{
			name:    "missing data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: "DATA_DIR is required",
		},
		{
			name:    "non-positive transport timeout",
			mutate:  func(c *Config) { c.TransportTimeout = 0 },
			wantErr: "transport timeout must be positive",
		},
		{
			name:    "negative extraction min length",
			mutate:  func(c *Config) { c.ExtractionMinLength = -1 },
			wantErr: "extraction min length cannot be negative",
		},
		{
			name: "r2 enabled without credentials",
			mutate: func(c *Config) {
				c.R2Enabled = true
				c.R2Endpoint = "https://example.r2.cloudflarestorage.com"
			},
			wantErr: "R2 backup enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateJoinsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for empty config")
	}

	for _, want := range []string{EnvWhatsAppToken, EnvWhatsAppPhoneNumberID, EnvVerifyToken, "PORT", "DATA_DIR"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q: %v", want, err)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvWhatsAppToken, "token")
	t.Setenv(EnvWhatsAppPhoneNumberID, "12345")
	t.Setenv(EnvWhatsAppPhoneNumber, "9725551234")
	t.Setenv(EnvVerifyToken, "verify")
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvTransportTimeout, "7s")
	t.Setenv(EnvUserRateBurst, "3.5")
	t.Setenv(EnvExpiryReminderEnabled, "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.WhatsAppToken != "token" {
		t.Errorf("WhatsAppToken = %q, want %q", cfg.WhatsAppToken, "token")
	}
	if cfg.GraphAPIBaseURL != DefaultGraphAPIBaseURL {
		t.Errorf("GraphAPIBaseURL = %q, want default %q", cfg.GraphAPIBaseURL, DefaultGraphAPIBaseURL)
	}
	if cfg.TransportTimeout != 7*time.Second {
		t.Errorf("TransportTimeout = %v, want 7s", cfg.TransportTimeout)
	}
	if cfg.UserRateBurst != 3.5 {
		t.Errorf("UserRateBurst = %v, want 3.5", cfg.UserRateBurst)
	}
	if cfg.ExpiryReminderEnabled {
		t.Error("ExpiryReminderEnabled = true, want false")
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", cfg.Port)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv(EnvWhatsAppToken, "")
	t.Setenv(EnvWhatsAppPhoneNumberID, "")
	t.Setenv(EnvVerifyToken, "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected validation error")
	}
	if !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("Load() error = %v, want wrapped validation failure", err)
	}
}

func TestSQLitePath(t *testing.T) {
	t.Parallel()

	cfg := &Config{DataDir: "/var/lib/ckeep"}
	want := filepath.Join("/var/lib/ckeep", "coupons.db")
	if got := cfg.SQLitePath(); got != want {
		t.Errorf("SQLitePath() = %q, want %q", got, want)
	}
}

func TestHasLLMProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		gemini string
		groq   string
		want   bool
	}{
		{"none", "", "", false},
		{"gemini only", "key", "", true},
		{"groq only", "", "key", true},
		{"both", "key", "key", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{GeminiAPIKey: tt.gemini, GroqAPIKey: tt.groq}
			if got := cfg.HasLLMProvider(); got != tt.want {
				t.Errorf("HasLLMProvider() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_INT_BAD", "not-a-number")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_FLOAT", "1.25")
	t.Setenv("TEST_BOOL", "true")

	if got := getEnv("TEST_STRING", "fallback"); got != "value" {
		t.Errorf("getEnv = %q, want %q", got, "value")
	}
	if got := getEnv("TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv fallback = %q, want %q", got, "fallback")
	}
	if got := getIntEnv("TEST_INT", 0); got != 42 {
		t.Errorf("getIntEnv = %d, want 42", got)
	}
	if got := getIntEnv("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("getIntEnv bad value = %d, want fallback 7", got)
	}
	if got := getDurationEnv("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getDurationEnv = %v, want 90s", got)
	}
	if got := getFloatEnv("TEST_FLOAT", 0); got != 1.25 {
		t.Errorf("getFloatEnv = %v, want 1.25", got)
	}
	if got := getBoolEnv("TEST_BOOL", false); !got {
		t.Error("getBoolEnv = false, want true")
	}
	if got := getBoolEnv("TEST_BOOL_MISSING", true); !got {
		t.Error("getBoolEnv fallback = false, want true")
	}
}
