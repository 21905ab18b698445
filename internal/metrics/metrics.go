package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Extraction metrics
	ExtractionRequestsTotal   *prometheus.CounterVec
	ExtractionDurationSeconds *prometheus.HistogramVec

	// Outbound transport metrics
	TransportRequestsTotal   *prometheus.CounterVec
	TransportDurationSeconds *prometheus.HistogramVec

	// Coupon lifecycle metrics
	CouponEventsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Snapshot metrics
	SnapshotTotal    *prometheus.CounterVec
	SnapshotDuration prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Webhook metrics
		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ckeep_webhook_requests_total",
				Help: "Total number of webhook events by kind and status",
			},
			[]string{"kind", "status"}, // kind: text, media, interactive; status: success, error, dropped
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ckeep_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by kind",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15, 30, 60}, // Media events include extraction
			},
			[]string{"kind"},
		),

		// Extraction metrics
		ExtractionRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ckeep_extraction_requests_total",
				Help: "Total number of extraction requests by provider, operation and status",
			},
			[]string{"provider", "operation", "status"}, // operation: text, image, update, search
		),

		ExtractionDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ckeep_extraction_duration_seconds",
				Help:    "Extraction request duration in seconds by provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45}, // Matches 45s extraction timeout
			},
			[]string{"provider"},
		),

		// Outbound transport metrics
		TransportRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ckeep_transport_requests_total",
				Help: "Total number of outbound Graph API requests by operation and status",
			},
			[]string{"operation", "status"}, // operation: send_text, send_interactive, send_reaction, mark_read, download_media
		),

		TransportDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ckeep_transport_duration_seconds",
				Help:    "Outbound Graph API request duration in seconds by operation",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"operation"},
		),

		// Coupon lifecycle metrics
		CouponEventsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ckeep_coupon_events_total",
				Help: "Total number of coupon lifecycle events",
			},
			[]string{"event"}, // event: stored, updated, used, canceled, shared, mirrored
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ckeep_rate_limiter_dropped_total",
				Help: "Total number of webhook events dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, global
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ckeep_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: invalid_signature, bad_payload, verify_failed
		),

		// Snapshot metrics
		SnapshotTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ckeep_snapshot_total",
				Help: "Total number of database snapshot uploads by status",
			},
			[]string{"status"}, // status: success, error
		),

		SnapshotDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ckeep_snapshot_duration_seconds",
				Help:    "Duration of database snapshot compression and upload",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
	}

	return m
}

// RecordWebhook records a webhook event with status
func (m *Metrics) RecordWebhook(kind, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(kind, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(kind).Observe(duration)
}

// RecordExtraction records an extraction request with status
func (m *Metrics) RecordExtraction(provider, operation, status string, duration float64) {
	m.ExtractionRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	m.ExtractionDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordTransport records an outbound Graph API request
func (m *Metrics) RecordTransport(operation, status string, duration float64) {
	m.TransportRequestsTotal.WithLabelValues(operation, status).Inc()
	m.TransportDurationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordCouponEvent records a coupon lifecycle event
func (m *Metrics) RecordCouponEvent(event string) {
	m.CouponEventsTotal.WithLabelValues(event).Inc()
}

// RecordRateLimiterDrop records an event dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordSnapshot records a database snapshot attempt
func (m *Metrics) RecordSnapshot(status string, duration float64) {
	m.SnapshotTotal.WithLabelValues(status).Inc()
	m.SnapshotDuration.Observe(duration)
}
