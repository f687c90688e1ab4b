package gate

import "errors"

var (
	ErrMissingUserID     = errors.New("gate: user id is required")
	ErrUnknownCacheKind  = errors.New("gate: unknown cache kind")
	ErrEntitlementLookup = errors.New("gate: entitlement lookup failed")
)
