package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "subsync"

// Metrics groups the engine's collectors. A nil *Metrics is valid and
// records nothing, so components can take it as an optional dependency.
type Metrics struct {
	webhookRequests  *prometheus.CounterVec
	webhookDuration  *prometheus.HistogramVec
	reconcileResults *prometheus.CounterVec
	gateDecisions    *prometheus.CounterVec
	gateCacheLookups *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
// A nil reg leaves them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		webhookRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "requests_total",
				Help:      "Webhook deliveries by provider, event type and response status.",
			},
			[]string{"provider", "event_type", "status"},
		),
		webhookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "duration_seconds",
				Help:      "Time spent verifying and reconciling a webhook delivery.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider", "event_type"},
		),
		reconcileResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "outcomes_total",
				Help:      "Reconciliation outcomes by event kind.",
			},
			[]string{"kind", "outcome"},
		),
		gateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gate",
				Name:      "decisions_total",
				Help:      "Access gate decisions.",
			},
			[]string{"decision"},
		),
		gateCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gate",
				Name:      "cache_lookups_total",
				Help:      "Entitlement cache lookups by result (hit, miss, error).",
			},
			[]string{"result"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "rejections_total",
				Help:      "Requests rejected by a rate limiter.",
			},
			[]string{"limiter"},
		),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// MustNew is New that panics on registration errors.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.webhookRequests,
		m.webhookDuration,
		m.reconcileResults,
		m.gateDecisions,
		m.gateCacheLookups,
		m.rateLimited,
	}
}

// ObserveWebhook records one webhook delivery.
func (m *Metrics) ObserveWebhook(provider, eventType string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookRequests.WithLabelValues(provider, eventType, statusLabel(status)).Inc()
	m.webhookDuration.WithLabelValues(provider, eventType).Observe(elapsed.Seconds())
}

// ReconcileOutcome counts one reconciliation result.
func (m *Metrics) ReconcileOutcome(kind, outcome string) {
	if m == nil {
		return
	}
	m.reconcileResults.WithLabelValues(kind, outcome).Inc()
}

// GateDecision counts one gate decision.
func (m *Metrics) GateDecision(decision string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(decision).Inc()
}

// GateCacheLookup counts one cache lookup; result is hit, miss or error.
func (m *Metrics) GateCacheLookup(result string) {
	if m == nil {
		return
	}
	m.gateCacheLookups.WithLabelValues(result).Inc()
}

// RateLimited counts one rejected request.
func (m *Metrics) RateLimited(limiter string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(limiter).Inc()
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 200 && status < 300:
		return "2xx"
	default:
		return "other"
	}
}
