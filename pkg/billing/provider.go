package billing

import (
	"context"

	"github.com/dmitrymomot/subsync/pkg/profile"
)

// Verifier authenticates a raw webhook delivery and decodes it.
//
// Implementations must verify the signature over payload exactly as
// received before parsing it. Signature failures return an error wrapping
// ErrInvalidSignature; a missing secret returns ErrMissingSecret; a body
// that verifies but cannot be decoded returns ErrMalformedEvent.
type Verifier interface {
	VerifyEvent(ctx context.Context, payload []byte, signatureHeader string) (Event, error)
}

// SubscriptionLookup fetches the correlation metadata stored on a
// provider subscription.
type SubscriptionLookup interface {
	Correlation(ctx context.Context, subscriptionID string) (Correlation, error)
}

// CheckoutCreator opens a hosted checkout for one price.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)
}

// Provider is a billing backend.
type Provider interface {
	Verifier
	SubscriptionLookup
	CheckoutCreator

	// Name is a short lowercase identifier used in logs, metrics and routes.
	Name() string
	// SignatureHeader is the HTTP header carrying the webhook signature.
	SignatureHeader() string
}

// CheckoutRequest describes a checkout to open. Correlation must be stored
// on the session and on the resulting subscription.
type CheckoutRequest struct {
	PriceID     string
	Tier        profile.Tier
	Email       string
	Correlation Correlation
	SuccessURL  string
	CancelURL   string
}

// CheckoutLink is where the user should be sent to pay.
type CheckoutLink struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
}
