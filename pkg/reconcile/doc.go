// Package reconcile turns verified billing events into profile mutations.
//
// A Dispatcher routes each event to one Handler by kind. The Reconciler
// provides the handlers:
//
//	purchase_completed           upsert active, tier, subscription id, email
//	invoice_paid                 look up subscription, set active if profile exists
//	subscription_status_changed  active = status is active or trialing
//	subscription_canceled        active = false, tier and id kept
//
// Events that cannot be tied to a user or an existing profile are logged and
// reported as OutcomeSkipped with a nil error, so the delivery is
// acknowledged. Store and provider failures are returned wrapped in
// ErrTransient so the delivery is retried.
//
// Wiring:
//
//	d := reconcile.NewDispatcher(reconcile.WithDispatcherMetrics(m))
//	reconcile.New(store, provider, reconcile.WithInvalidator(checker)).Register(d)
//	outcome, err := d.Dispatch(ctx, event)
package reconcile
