// Package config defines environment variable keys for configuration.
package config

//nolint:gosec // Environment variable keys are not credentials.
const (
	// Core (Required)
	EnvWhatsAppToken         = "CKEEP_WHATSAPP_TOKEN"
	EnvWhatsAppPhoneNumberID = "CKEEP_WHATSAPP_PHONE_NUMBER_ID"
	EnvWhatsAppPhoneNumber   = "CKEEP_WHATSAPP_PHONE_NUMBER"
	EnvVerifyToken           = "CKEEP_VERIFY_TOKEN"
	EnvAppSecret             = "CKEEP_APP_SECRET"

	// Server
	EnvPort            = "CKEEP_PORT"
	EnvLogLevel        = "CKEEP_LOG_LEVEL"
	EnvShutdownTimeout = "CKEEP_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir = "CKEEP_DATA_DIR"

	// Transport
	EnvGraphAPIBaseURL  = "CKEEP_GRAPH_API_BASE_URL"
	EnvTransportTimeout = "CKEEP_TRANSPORT_TIMEOUT"

	// Webhook
	EnvWebhookTimeout = "CKEEP_WEBHOOK_TIMEOUT"

	// Rate Limits
	EnvUserRateBurst  = "CKEEP_USER_RATE_BURST"
	EnvUserRateRefill = "CKEEP_USER_RATE_REFILL"

	// LLM Feature
	EnvGeminiAPIKey        = "CKEEP_GEMINI_API_KEY"
	EnvGeminiModel         = "CKEEP_GEMINI_MODEL"
	EnvGroqAPIKey          = "CKEEP_GROQ_API_KEY"
	EnvGroqModel           = "CKEEP_GROQ_MODEL"
	EnvExtractionTimeout   = "CKEEP_EXTRACTION_TIMEOUT"
	EnvExtractionRetries   = "CKEEP_EXTRACTION_RETRIES"
	EnvExtractionMinLength = "CKEEP_EXTRACTION_MIN_LENGTH"

	// Background Jobs
	EnvExpiryReminderEnabled  = "CKEEP_EXPIRY_REMINDER_ENABLED"
	EnvExpiryReminderInterval = "CKEEP_EXPIRY_REMINDER_INTERVAL"
	EnvExpiryReminderDays     = "CKEEP_EXPIRY_REMINDER_DAYS"
	EnvSnapshotInterval       = "CKEEP_SNAPSHOT_INTERVAL"

	// R2 Backup Feature
	EnvR2Enabled         = "CKEEP_R2_ENABLED"
	EnvR2Endpoint        = "CKEEP_R2_ENDPOINT"
	EnvR2AccessKeyID     = "CKEEP_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "CKEEP_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "CKEEP_R2_BUCKET_NAME"
	EnvR2SnapshotKey     = "CKEEP_R2_SNAPSHOT_KEY"

	// Sentry Feature
	EnvSentryEnabled     = "CKEEP_SENTRY_ENABLED"
	EnvSentryDSN         = "CKEEP_SENTRY_DSN"
	EnvSentryEnvironment = "CKEEP_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "CKEEP_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "CKEEP_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "CKEEP_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "CKEEP_METRICS_USERNAME"
	EnvMetricsPassword = "CKEEP_METRICS_PASSWORD"
)
