package gate

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrymomot/subsync/pkg/profile"
)

// Checker answers whether a user currently holds an active subscription.
// A missing profile is a definitive false, not an error.
type Checker interface {
	Entitled(ctx context.Context, userID string) (bool, error)
}

// Invalidator drops any cached answer for a user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// StoreChecker reads the profile store directly.
type StoreChecker struct {
	store profile.Store
}

// NewStoreChecker panics if store is nil.
func NewStoreChecker(store profile.Store) *StoreChecker {
	if store == nil {
		panic("gate: profile store is required")
	}
	return &StoreChecker{store: store}
}

func (c *StoreChecker) Entitled(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrMissingUserID
	}
	p, err := c.store.Get(ctx, userID)
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		return false, nil
	case err != nil:
		return false, errors.Join(ErrEntitlementLookup, err)
	}
	return p.Entitled(), nil
}

// Invalidate is a no-op; StoreChecker holds no state.
func (c *StoreChecker) Invalidate(context.Context, string) error { return nil }
