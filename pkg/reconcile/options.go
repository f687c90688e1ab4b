package reconcile

import (
	"log/slog"
	"time"
)

// DefaultLookupTimeout bounds the provider call made for invoice payments.
const DefaultLookupTimeout = 10 * time.Second

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithInvalidator is notified after every applied mutation.
func WithInvalidator(inv Invalidator) Option {
	return func(r *Reconciler) {
		r.invalidator = inv
	}
}

// WithLookupTimeout overrides DefaultLookupTimeout. Non-positive values are
// ignored.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.lookupTimeout = d
		}
	}
}

// WithLogger sets the decision logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}
