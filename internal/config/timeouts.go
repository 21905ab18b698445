package config

import "time"

// Timeout constants used across the application.
const (
	// WebhookProcessing bounds handling of a single inbound webhook event,
	// including media downloads and extraction calls.
	WebhookProcessing = 60 * time.Second

	// TransportRequest is the default HTTP timeout for outbound Graph API calls.
	TransportRequest = 15 * time.Second

	// ExtractionRequest is the default timeout for a single LLM extraction call.
	ExtractionRequest = 45 * time.Second

	// HTTP server timeouts
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 30 * time.Second
	HTTPIdleTimeout  = 120 * time.Second

	// DatabaseBusyTimeout is how long SQLite waits on a locked database
	DatabaseBusyTimeout = 5 * time.Second

	// Background job intervals
	ExpiryReminderInterval = 24 * time.Hour
	SnapshotInterval       = 6 * time.Hour

	// GracefulShutdown is the maximum time to wait for in-flight webhook
	// processing during shutdown.
	GracefulShutdown = 30 * time.Second
)
