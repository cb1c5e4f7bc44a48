package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPActiveConnections *prometheus.GaugeVec

	// Rate limiting
	RateLimitExceededTotal *prometheus.CounterVec

	// Generation pipeline
	GenerationRunsTotal      *prometheus.CounterVec
	GeneratedEntitiesTotal   *prometheus.CounterVec
	GenerationItemDuration   *prometheus.HistogramVec
	GenerationRunsInProgress *prometheus.GaugeVec

	// Streaming sessions
	WebSocketSessionsActive    prometheus.Gauge
	WebSocketAdmissionRejected *prometheus.CounterVec
	WebSocketEventsTotal       *prometheus.CounterVec
	WebSocketCommandsRejected  *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 30},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method", "path"},
			),
			RateLimitExceededTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests or commands rejected by a rate limiter",
				},
				[]string{"limiter"},
			),
			GenerationRunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "threadfit_generation_runs_total",
					Help: "Generation runs by action and outcome",
				},
				[]string{"action", "outcome"},
			),
			GeneratedEntitiesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "threadfit_generated_entities_total",
					Help: "Synthetic entities persisted",
				},
				[]string{"kind"},
			),
			GenerationItemDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "threadfit_generation_item_duration_seconds",
					Help:    "Time to build and persist one synthetic entity",
					Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
				},
				[]string{"kind"},
			),
			GenerationRunsInProgress: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "threadfit_generation_runs_in_progress",
					Help: "Generation runs currently producing items",
				},
				[]string{"action"},
			),
			WebSocketSessionsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "threadfit_ws_sessions_active",
					Help: "Open streaming sessions",
				},
			),
			WebSocketAdmissionRejected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "threadfit_ws_admission_rejected_total",
					Help: "Streaming connections refused before traffic",
				},
				[]string{"reason"},
			),
			WebSocketEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "threadfit_ws_events_total",
					Help: "Outbound streaming events by type",
				},
				[]string{"type"},
			),
			WebSocketCommandsRejected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "threadfit_ws_commands_rejected_total",
					Help: "Inbound commands answered with an error event",
				},
				[]string{"reason"},
			),
		}
	})
	return instance
}

// Get returns the metrics singleton, initializing it on first use.
func Get() *Metrics {
	return Initialize()
}
