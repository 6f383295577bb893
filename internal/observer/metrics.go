package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Labels for webhook ingestion metrics
	webhookLabels = []string{"platform", "tenant_id"}
	// Labels for webhook outcomes with an error category
	webhookOutcomeLabels = []string{"platform", "tenant_id", "error_type"}
	// Labels for SMS dispatch metrics
	smsLabels = []string{"tenant_id", "message_type"}

	WebhooksReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_webhooks_received_total",
			Help: "Total number of webhook requests received, labeled by platform and tenant.",
		},
		webhookLabels,
	)
	WebhooksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_webhooks_processed_total",
			Help: "Total number of webhooks fully processed through to SMS dispatch.",
		},
		webhookLabels,
	)
	WebhooksSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_webhooks_skipped_total",
			Help: "Total number of webhooks acknowledged but intentionally not processed (test payloads, uninteresting events).",
		},
		webhookLabels,
	)
	WebhooksFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_webhooks_failed_total",
			Help: "Total number of webhooks that failed processing, labeled by error category.",
		},
		webhookOutcomeLabels,
	)

	WebhookProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solapi_alert_webhook_processing_duration_seconds",
			Help:    "Histogram of end-to-end webhook processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		webhookLabels,
	)

	SmsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_sms_sent_total",
			Help: "Total number of notification messages accepted by SOLAPI, labeled by message type (SMS/LMS).",
		},
		smsLabels,
	)
	SmsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_sms_failed_total",
			Help: "Total number of notification messages rejected by SOLAPI or failed in transit.",
		},
		smsLabels,
	)
	SmsDispatchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solapi_alert_sms_dispatch_duration_seconds",
			Help:    "Histogram of SOLAPI send request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tenant_id"},
	)
)

// Rate limiter metrics
var (
	rateLimitLabels = []string{"scope"}

	rateLimitRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_rate_limit_rejected_total",
			Help: "Total number of requests rejected by the rate limiter, labeled by limiter scope.",
		},
		rateLimitLabels,
	)
)

// Log worker pool metrics
var (
	logWorkerTasksSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_log_worker_tasks_submitted_total",
			Help: "Total number of webhook log writes submitted to the worker pool.",
		},
		[]string{"tenant_id"},
	)
	logWorkerTasksDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solapi_alert_log_worker_tasks_dropped_total",
			Help: "Total number of webhook log writes dropped because the pool rejected them.",
		},
		[]string{"tenant_id"},
	)
	logWorkerQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solapi_alert_log_worker_queue_length",
		Help: "Approximate number of log writes waiting in the worker pool queue.",
	})
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "tenant_id", "status"}

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solapi_alert_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// InitMetrics toggles metric collection. Metrics are auto-registered via
// promauto; disabling turns every helper into a no-op.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncWebhooksReceived increments the webhooks received counter.
func IncWebhooksReceived(platform, tenant string) {
	if !metricsEnabled {
		return
	}
	WebhooksReceivedTotal.WithLabelValues(platform, sanitizeTenant(tenant)).Inc()
}

// IncWebhooksProcessed increments the webhooks processed counter.
func IncWebhooksProcessed(platform, tenant string) {
	if !metricsEnabled {
		return
	}
	WebhooksProcessedTotal.WithLabelValues(platform, sanitizeTenant(tenant)).Inc()
}

// IncWebhooksSkipped increments the webhooks skipped counter.
func IncWebhooksSkipped(platform, tenant string) {
	if !metricsEnabled {
		return
	}
	WebhooksSkippedTotal.WithLabelValues(platform, sanitizeTenant(tenant)).Inc()
}

// IncWebhooksFailed increments the webhooks failed counter with a coarse
// error category.
func IncWebhooksFailed(platform, tenant, errorType string) {
	if !metricsEnabled {
		return
	}
	WebhooksFailedTotal.WithLabelValues(platform, sanitizeTenant(tenant), SanitizeErrorType(errorType)).Inc()
}

// ObserveWebhookProcessingDuration records the end-to-end processing time for
// one webhook.
func ObserveWebhookProcessingDuration(platform, tenant string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	WebhookProcessingDurationSeconds.WithLabelValues(platform, sanitizeTenant(tenant)).Observe(duration.Seconds())
}

// IncSmsSent increments the sent-message counter.
func IncSmsSent(tenant, messageType string) {
	if !metricsEnabled {
		return
	}
	SmsSentTotal.WithLabelValues(sanitizeTenant(tenant), messageType).Inc()
}

// IncSmsFailed increments the failed-message counter.
func IncSmsFailed(tenant, messageType string) {
	if !metricsEnabled {
		return
	}
	SmsFailedTotal.WithLabelValues(sanitizeTenant(tenant), messageType).Inc()
}

// ObserveSmsDispatchDuration records the duration of one SOLAPI send request.
func ObserveSmsDispatchDuration(tenant string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	SmsDispatchDurationSeconds.WithLabelValues(sanitizeTenant(tenant)).Observe(duration.Seconds())
}

// IncRateLimitRejected increments the rejected-request counter for a limiter
// scope ("webhook", "api", "auth").
func IncRateLimitRejected(scope string) {
	if !metricsEnabled {
		return
	}
	rateLimitRejectedTotal.WithLabelValues(scope).Inc()
}

// IncLogWorkerTasksSubmitted increments the submitted log-write counter.
func IncLogWorkerTasksSubmitted(tenant string) {
	if !metricsEnabled {
		return
	}
	logWorkerTasksSubmittedTotal.WithLabelValues(sanitizeTenant(tenant)).Inc()
}

// IncLogWorkerTasksDropped increments the dropped log-write counter.
func IncLogWorkerTasksDropped(tenant string) {
	if !metricsEnabled {
		return
	}
	logWorkerTasksDroppedTotal.WithLabelValues(sanitizeTenant(tenant)).Inc()
}

// SetLogWorkerQueueLength sets the current log worker queue length.
func SetLogWorkerQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	logWorkerQueueLength.Set(float64(length))
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity, tenant string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, sanitizeTenant(tenant), status).Observe(duration.Seconds())
}

// sanitizeTenant ensures the tenant label is valid or returns a default value.
func sanitizeTenant(tenant string) string {
	if tenant == "" {
		return "unknown"
	}
	return tenant
}

// SanitizeErrorType maps specific errors to a coarse category.
// Keep this simple to avoid high cardinality.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	switch {
	case strings.Contains(errStr, "signature"):
		return "signature"
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "SQL"), strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "constraint"), strings.Contains(errStr, "connection"):
		return "database"
	case strings.Contains(errStr, "validation failed"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid"), strings.Contains(errStr, "missing field"):
		return "validation"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no rows"):
		return "not_found"
	case strings.Contains(errStr, "solapi"), strings.Contains(errStr, "graph"), strings.Contains(errStr, "upstream"):
		return "upstream"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "unmarshal"), strings.Contains(errStr, "json"):
		return "unmarshal"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
