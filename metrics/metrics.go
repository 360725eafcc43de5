// Package metrics provides the Prometheus collectors for generation
// exchanges and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LLMBuckets spans typical completion latencies, 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// ExchangesTotal counts provider exchanges by provider, mode and outcome.
	ExchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thesis_llm_exchanges_total",
			Help: "Chat-completion exchanges",
		},
		[]string{"provider", "mode", "outcome"},
	)

	// ExchangeDuration records exchange duration in seconds.
	ExchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thesis_llm_exchange_duration_seconds",
			Help:    "Exchange duration",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "mode"},
	)

	// DeltasTotal counts content deltas delivered to callers.
	DeltasTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thesis_llm_deltas_total",
			Help: "Streamed content deltas",
		},
		[]string{"provider"},
	)

	// FramesSkippedTotal counts stream frames dropped because their payload
	// did not parse.
	FramesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thesis_llm_frames_skipped_total",
			Help: "Malformed stream frames skipped",
		},
		[]string{"provider"},
	)

	// GenerationsTotal counts assistant generations by use case and outcome.
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thesis_generations_total",
			Help: "Assistant generations",
		},
		[]string{"use_case", "outcome"},
	)

	// HTTPRequestsTotal counts API requests by method, route and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thesis_http_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	// RateLimitedTotal counts generation requests rejected by the per-client
	// rate limiter.
	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "thesis_http_rate_limited_total",
			Help: "Generation requests rejected by the rate limiter",
		},
	)

	// StreamingConnections tracks SSE responses in flight.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "thesis_http_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ExchangesTotal,
		ExchangeDuration,
		DeltasTotal,
		FramesSkippedTotal,
		GenerationsTotal,
		HTTPRequestsTotal,
		RateLimitedTotal,
		StreamingConnections,
	)
}

// Exchange modes.
const (
	ModeStream   = "stream"
	ModeComplete = "complete"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
	OutcomeFallback = "fallback"
)

// ObserveExchange records one finished exchange.
func ObserveExchange(provider, mode, outcome string, started time.Time) {
	ExchangesTotal.WithLabelValues(provider, mode, outcome).Inc()
	ExchangeDuration.WithLabelValues(provider, mode).Observe(time.Since(started).Seconds())
}
