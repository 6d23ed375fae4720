// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeValidation   = "validation_error"
	OutcomeUploadError  = "upload_error"
	OutcomeRecordError  = "record_error"
	OutcomeNotFound     = "not_found"
	OutcomeDownloadFail = "download_error"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_http_requests_total",
			Help: "Total number of HTTP requests by route and status class",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ApplicationSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_application_submissions_total",
			Help: "Total number of application submissions by outcome",
		},
		[]string{"outcome"},
	)

	CVUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobboard_cv_upload_bytes",
			Help:    "Size of uploaded CV files in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
	)

	CVDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_cv_downloads_total",
			Help: "Total number of admin CV downloads by outcome",
		},
		[]string{"outcome"},
	)

	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_auth_events_total",
			Help: "Total number of auth state changes by type",
		},
		[]string{"type"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_notification_failures_total",
			Help: "Total number of best-effort notifications that failed",
		},
		[]string{"channel"},
	)

	GuardRedirects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobboard_guard_redirects_total",
			Help: "Total number of admin requests redirected to login",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
