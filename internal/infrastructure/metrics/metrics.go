package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/stockledger/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Movement metrics
	MovementsApplied *prometheus.CounterVec
	MovementDuration *prometheus.HistogramVec
	MovementFailures *prometheus.CounterVec

	// Projection metrics
	ProjectionsStale     prometheus.Counter
	ProjectionsCorrected prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Authentication and rate limiting metrics
	AuthFailures  *prometheus.CounterVec
	RateLimitHits prometheus.Counter
}

// New creates and registers all Prometheus metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all Prometheus metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Movement metrics
		MovementsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_movements_applied_total",
				Help: "Total stock movements written to the ledger",
			},
			[]string{"type", "source"},
		),
		MovementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockledger_movement_duration_seconds",
				Help:    "Duration of balance engine movements",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		MovementFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_movement_failures_total",
				Help: "Total rejected or failed movements by reason",
			},
			[]string{"reason"},
		),

		// Projection metrics
		ProjectionsStale: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_projection_stale_total",
			Help: "Movements whose entry was written but product quantity was not updated",
		}),
		ProjectionsCorrected: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_projection_corrected_total",
			Help: "Product quantities corrected by reconciliation",
		}),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_outbox_failures_total",
			Help: "Total outbox events that failed to publish",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stockledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Authentication and rate limiting metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}

// ObserveMovement records an applied movement.
func (m *Metrics) ObserveMovement(movementType domain.MovementType, source domain.MovementSource, duration time.Duration) {
	m.MovementsApplied.WithLabelValues(string(movementType), string(source)).Inc()
	m.MovementDuration.WithLabelValues(string(movementType)).Observe(duration.Seconds())
}

// MovementFailed records a movement that wrote nothing.
func (m *Metrics) MovementFailed(reason string) {
	m.MovementFailures.WithLabelValues(reason).Inc()
}

// ProjectionStale records a movement that left its product out of date.
func (m *Metrics) ProjectionStale() {
	m.ProjectionsStale.Inc()
}

// ProjectionCorrected records a quantity fixed by reconciliation.
func (m *Metrics) ProjectionCorrected() {
	m.ProjectionsCorrected.Inc()
}

// OutboxEventPublished records a published outbox event.
func (m *Metrics) OutboxEventPublished() {
	m.OutboxPublished.Inc()
}

// OutboxPublishFailed records an outbox event that will be retried.
func (m *Metrics) OutboxPublishFailed() {
	m.OutboxFailures.Inc()
}
