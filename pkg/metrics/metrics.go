package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submit outcomes per form
	SubmissionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_submissions_total",
			Help: "Total number of waitlist submit attempts by outcome",
		},
		[]string{"form", "outcome"}, // outcome: accepted, rejected, transport_failure, already_in_flight
	)

	// Transport call latency (seconds)
	TransportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waitlist_transport_duration_seconds",
			Help:    "Waitlist transport call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"transport", "status"},
	)

	IdentityProbeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_identity_probes_total",
			Help: "Wallet identity probes by result",
		},
		[]string{"result"}, // result: connected, absent, error, timeout
	)

	BreakerRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_breaker_rejections_total",
			Help: "Transport calls short-circuited by an open breaker",
		},
		[]string{"transport"},
	)

	// Requests received by the development sink
	SinkReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_sink_received_total",
			Help: "Waitlist records received by the sink",
		},
		[]string{"method", "status"},
	)
)

func IncrementSubmission(form, outcome string) {
	SubmissionCount.WithLabelValues(form, outcome).Inc()
}

func RecordTransportDuration(transport, status string, duration time.Duration) {
	TransportDuration.WithLabelValues(transport, status).Observe(duration.Seconds())
}

func IncrementIdentityProbe(result string) {
	IdentityProbeCount.WithLabelValues(result).Inc()
}

func IncrementBreakerRejection(transport string) {
	BreakerRejections.WithLabelValues(transport).Inc()
}

func IncrementSinkReceived(method, status string) {
	SinkReceived.WithLabelValues(method, status).Inc()
}
