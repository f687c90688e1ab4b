package profile

import "errors"

var (
	ErrProfileNotFound       = errors.New("profile not found")
	ErrMissingUserID         = errors.New("profile user ID is required")
	ErrUnknownTier           = errors.New("unknown subscription tier")
	ErrMissingSubscriptionID = errors.New("external subscription ID is required")

	// ErrStoreUnavailable wraps transport and driver failures so callers can
	// tell them apart from domain errors and retry.
	ErrStoreUnavailable = errors.New("profile store unavailable")
)
