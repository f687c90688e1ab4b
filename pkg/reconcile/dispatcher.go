package reconcile

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/metrics"
)

// Handler processes one verified event.
type Handler func(ctx context.Context, ev billing.Event) (Outcome, error)

// Dispatcher routes events to exactly one handler by kind.
// Handlers are registered at startup; Dispatch is safe for concurrent use
// once registration is done.
type Dispatcher struct {
	handlers map[billing.Kind]Handler
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger used for ignored events.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithDispatcherMetrics counts every outcome.
func WithDispatcherMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[billing.Kind]Handler),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle registers h for kind.
// Panics on a nil handler or when kind already has one.
func (d *Dispatcher) Handle(kind billing.Kind, h Handler) {
	if h == nil {
		panic("reconcile: nil handler for " + string(kind))
	}
	if _, exists := d.handlers[kind]; exists {
		panic("reconcile: handler for " + string(kind) + " already registered")
	}
	d.handlers[kind] = h
}

// Dispatch runs the handler registered for ev's kind. Ignored events and
// kinds without a handler succeed with OutcomeIgnored.
func (d *Dispatcher) Dispatch(ctx context.Context, ev billing.Event) (Outcome, error) {
	if ev == nil {
		return OutcomeFailed, ErrNilEvent
	}

	kind := ev.Kind()
	h, ok := d.handlers[kind]
	if !ok || kind == billing.KindIgnored {
		meta := ev.Meta()
		d.log.DebugContext(ctx, "billing event ignored",
			logger.Provider(meta.Provider),
			logger.EventType(meta.Type),
			logger.EventID(meta.ID),
		)
		d.metrics.ReconcileOutcome(string(kind), OutcomeIgnored.String())
		return OutcomeIgnored, nil
	}

	outcome, err := h(ctx, ev)
	if err != nil && outcome == "" {
		outcome = OutcomeFailed
	}
	d.metrics.ReconcileOutcome(string(kind), outcome.String())
	return outcome, err
}
