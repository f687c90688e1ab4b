package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/profile"
)

// Invalidator drops cached entitlement answers for a user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Reconciler applies billing events to the profile store.
//
// Only PurchaseCompleted creates profiles; every other handler updates an
// existing profile or skips. All handlers are idempotent and last-write-wins.
type Reconciler struct {
	store         profile.Store
	lookup        billing.SubscriptionLookup
	invalidator   Invalidator
	lookupTimeout time.Duration
	log           *slog.Logger
}

// New returns a Reconciler. Panics if store or lookup is nil.
func New(store profile.Store, lookup billing.SubscriptionLookup, opts ...Option) *Reconciler {
	if store == nil {
		panic("reconcile: profile store is required")
	}
	if lookup == nil {
		panic("reconcile: subscription lookup is required")
	}

	r := &Reconciler{
		store:         store,
		lookup:        lookup,
		lookupTimeout: DefaultLookupTimeout,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds the four reconciliation handlers to d.
func (r *Reconciler) Register(d *Dispatcher) {
	d.Handle(billing.KindPurchaseCompleted, typed(r.PurchaseCompleted))
	d.Handle(billing.KindInvoicePaid, typed(r.InvoicePaid))
	d.Handle(billing.KindSubscriptionStatusChanged, typed(r.SubscriptionStatusChanged))
	d.Handle(billing.KindSubscriptionCanceled, typed(r.SubscriptionCanceled))
}

func typed[E billing.Event](fn func(context.Context, E) (Outcome, error)) Handler {
	return func(ctx context.Context, ev billing.Event) (Outcome, error) {
		e, ok := ev.(E)
		if !ok {
			return OutcomeFailed, fmt.Errorf("reconcile: unexpected event %T for kind %s", ev, ev.Kind())
		}
		return fn(ctx, e)
	}
}

// PurchaseCompleted upserts the profile as active with the purchased tier
// and subscription id, creating it when absent.
func (r *Reconciler) PurchaseCompleted(ctx context.Context, ev billing.PurchaseCompleted) (Outcome, error) {
	log := r.eventLogger(ev.EventMeta).With(logger.UserID(ev.Correlation.UserID))

	if !ev.Correlation.HasUser() {
		return r.skip(ctx, log, "purchase without user id in metadata")
	}
	tier, err := profile.ParseTier(ev.Correlation.Plan)
	if err != nil {
		return r.skip(ctx, log, "purchase with unknown plan", slog.String("plan", ev.Correlation.Plan))
	}
	if ev.SubscriptionID == "" {
		return r.skip(ctx, log, "purchase without subscription id")
	}

	err = r.store.UpsertActive(ctx, ev.Correlation.UserID, profile.ActiveFields{
		Email:          ev.Email,
		Tier:           tier,
		SubscriptionID: ev.SubscriptionID,
	})
	if err != nil {
		return r.fail(ctx, log, "upsert profile", err)
	}

	return r.applied(ctx, log, ev.Correlation.UserID,
		slog.String("tier", tier.String()),
		logger.SubscriptionID(ev.SubscriptionID),
	)
}

// InvoicePaid reactivates the profile owning the paid subscription. The
// user is resolved by fetching the subscription from the provider.
func (r *Reconciler) InvoicePaid(ctx context.Context, ev billing.InvoicePaid) (Outcome, error) {
	log := r.eventLogger(ev.EventMeta).With(logger.SubscriptionID(ev.SubscriptionID))

	if ev.SubscriptionID == "" {
		return r.skip(ctx, log, "invoice without subscription id")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	corr, err := r.lookup.Correlation(lookupCtx, ev.SubscriptionID)
	cancel()
	switch {
	case errors.Is(err, billing.ErrSubscriptionMissing):
		return r.skip(ctx, log, "invoice for unknown subscription")
	case err != nil:
		return r.fail(ctx, log, "lookup subscription", err)
	}

	log = log.With(logger.UserID(corr.UserID))
	if !corr.HasUser() {
		return r.skip(ctx, log, "subscription without user id in metadata")
	}

	return r.setActive(ctx, log, corr.UserID, true)
}

// SubscriptionStatusChanged sets the active flag from the new status.
// Only active and trialing grant access.
func (r *Reconciler) SubscriptionStatusChanged(ctx context.Context, ev billing.SubscriptionStatusChanged) (Outcome, error) {
	log := r.eventLogger(ev.EventMeta).With(
		logger.UserID(ev.Correlation.UserID),
		logger.SubscriptionID(ev.SubscriptionID),
		slog.String("status", ev.Status),
	)

	if !ev.Correlation.HasUser() {
		return r.skip(ctx, log, "status change without user id in metadata")
	}
	return r.setActive(ctx, log, ev.Correlation.UserID, ev.Entitled())
}

// SubscriptionCanceled deactivates the profile. Tier and subscription id
// are kept.
func (r *Reconciler) SubscriptionCanceled(ctx context.Context, ev billing.SubscriptionCanceled) (Outcome, error) {
	log := r.eventLogger(ev.EventMeta).With(
		logger.UserID(ev.Correlation.UserID),
		logger.SubscriptionID(ev.SubscriptionID),
	)

	if !ev.Correlation.HasUser() {
		return r.skip(ctx, log, "cancellation without user id in metadata")
	}
	return r.setActive(ctx, log, ev.Correlation.UserID, false)
}

func (r *Reconciler) setActive(ctx context.Context, log *slog.Logger, userID string, active bool) (Outcome, error) {
	n, err := r.store.UpdateActiveIfExists(ctx, userID, active)
	if err != nil {
		return r.fail(ctx, log, "update active flag", err)
	}
	if n == 0 {
		return r.skip(ctx, log, "no profile for user")
	}
	return r.applied(ctx, log, userID, slog.Bool("active", active))
}

func (r *Reconciler) eventLogger(meta billing.EventMeta) *slog.Logger {
	return r.log.With(
		logger.Component("reconcile"),
		logger.Provider(meta.Provider),
		logger.EventType(meta.Type),
		logger.EventID(meta.ID),
	)
}

func (r *Reconciler) applied(ctx context.Context, log *slog.Logger, userID string, attrs ...any) (Outcome, error) {
	if r.invalidator != nil {
		if err := r.invalidator.Invalidate(ctx, userID); err != nil {
			// The write is durable; a stale cache entry expires on its own.
			log.WarnContext(ctx, "entitlement cache invalidation failed", logger.Error(err))
		}
	}
	log.InfoContext(ctx, "billing event applied", append(attrs, logger.Outcome(OutcomeApplied.String()))...)
	return OutcomeApplied, nil
}

func (r *Reconciler) skip(ctx context.Context, log *slog.Logger, reason string, attrs ...any) (Outcome, error) {
	log.WarnContext(ctx, "billing event skipped",
		append(attrs, slog.String("reason", reason), logger.Outcome(OutcomeSkipped.String()))...)
	return OutcomeSkipped, nil
}

func (r *Reconciler) fail(ctx context.Context, log *slog.Logger, op string, err error) (Outcome, error) {
	log.ErrorContext(ctx, "billing event failed",
		slog.String("op", op), logger.Error(err), logger.Outcome(OutcomeFailed.String()))
	return OutcomeFailed, errors.Join(ErrTransient, fmt.Errorf("%s: %w", op, err))
}
