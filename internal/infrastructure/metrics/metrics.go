package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OTP lifecycle
	OTPGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walleto_otp_generated_total",
		Help: "Total number of one-time codes generated.",
	}, []string{"purpose"})
	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walleto_otp_verifications_total",
		Help: "Total number of one-time code verifications.",
	}, []string{"purpose", "result"}) // result: "success" or "failed"
	OTPDeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "walleto_otp_delivery_failures_total",
		Help: "Total number of one-time codes that could not be delivered.",
	})
	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walleto_rate_limited_total",
		Help: "Total number of requests rejected by the attempt rate limiter.",
	}, []string{"action"})

	// Trusted devices
	TrustedDeviceChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walleto_trusted_device_checks_total",
		Help: "Total number of trusted-device validations.",
	}, []string{"result"})

	// Auth
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "walleto_signups_total",
		Help: "Total number of identities created.",
	})
	SigninsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walleto_signins_total",
		Help: "Total number of session tokens issued by sign-in path.",
	}, []string{"path"}) // path: "legacy", "trusted_device", "otp", "google"

	// Cleanup
	CleanupDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walleto_cleanup_deleted_total",
		Help: "Total number of rows removed by the cleanup sweep.",
	}, []string{"kind"}) // kind: "codes", "attempts", "devices"
	CleanupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walleto_cleanup_runs_total",
		Help: "Total number of cleanup sweeps.",
	}, []string{"status"}) // status: "success", "failed", "skipped"

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "walleto_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "walleto_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	HTTPResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "walleto_http_response_size_bytes",
		Help:    "Size of HTTP responses in bytes.",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8),
	}, []string{"method", "route", "status"})
)

// Outcome maps a boolean result to the "success"/"failed" label value.
func Outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}
