package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeGranted  = "granted"
	OutcomeRejected = "rejected"
)

var (
	ingestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rrweb_ingest_requests_total",
			Help: "Ingestion requests by outcome, failing stage and error code",
		},
		[]string{"outcome", "stage", "code"},
	)

	ingestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rrweb_ingest_duration_seconds",
			Help:    "End-to-end ingestion duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	storedSessionBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rrweb_stored_session_bytes",
			Help:    "Size of stored session objects in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	publishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rrweb_session_publish_failures_total",
			Help: "Stored-session notifications that could not be published",
		},
	)
)

// RecordGranted records a successful ingestion.
func RecordGranted(duration time.Duration, bodySize int) {
	ingestRequestsTotal.WithLabelValues(OutcomeGranted, "", "").Inc()
	ingestDuration.WithLabelValues(OutcomeGranted).Observe(duration.Seconds())
	storedSessionBytes.Observe(float64(bodySize))
}

// RecordRejected records an ingestion that stopped at stage with code.
func RecordRejected(stage, code string, duration time.Duration) {
	ingestRequestsTotal.WithLabelValues(OutcomeRejected, stage, code).Inc()
	ingestDuration.WithLabelValues(OutcomeRejected).Observe(duration.Seconds())
}

func RecordPublishFailure() {
	publishFailuresTotal.Inc()
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
