package billing

import "errors"

var (
	ErrInvalidSignature    = errors.New("billing: invalid webhook signature")
	ErrMissingSecret       = errors.New("billing: webhook secret is not configured")
	ErrMalformedEvent      = errors.New("billing: malformed event payload")
	ErrUnknownPlan         = errors.New("billing: unknown plan")
	ErrConfiguration       = errors.New("billing: provider is not configured")
	ErrProviderUnavailable = errors.New("billing: provider request failed")
	ErrSubscriptionMissing = errors.New("billing: subscription not found")
)
