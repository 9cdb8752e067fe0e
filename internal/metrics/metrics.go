// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horoscope_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Completion provider
	CompletionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscope_completion_requests_total",
			Help: "Completion provider calls by outcome",
		},
		[]string{"outcome"}, // "success", "configuration", "auth", "request", "provider", "empty_response"
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "horoscope_completion_duration_seconds",
			Help:    "Latency of completion provider calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "horoscope_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscope_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Readings
	ReadingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscope_reading_requests_total",
			Help: "Reading requests by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	EntitlementDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscope_entitlement_denials_total",
			Help: "Premium feature requests denied for lack of subscription",
		},
		[]string{"feature"},
	)

	// Sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "horoscope_active_sessions",
			Help: "Number of open user sessions",
		},
	)

	ProfileSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "horoscope_profile_event_subscribers",
			Help: "Number of connected profile event streams",
		},
	)
)
