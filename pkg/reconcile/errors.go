package reconcile

import "errors"

var (
	// ErrTransient marks failures the provider should retry: store outages,
	// lookup timeouts and provider API errors.
	ErrTransient = errors.New("reconcile: transient failure")
	ErrNilEvent  = errors.New("reconcile: nil event")
)
