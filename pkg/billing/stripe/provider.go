package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/dmitrymomot/subsync/pkg/billing"
)

// Name is the provider identifier used in routes, logs and metrics.
const Name = "stripe"

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

type (
	createSessionFunc   func(params *stripelib.CheckoutSessionParams) (*stripelib.CheckoutSession, error)
	getSubscriptionFunc func(id string, params *stripelib.SubscriptionParams) (*stripelib.Subscription, error)
)

// Provider implements billing.Provider on top of stripe-go.
type Provider struct {
	webhookSecret   string
	tolerance       time.Duration
	createSession   createSessionFunc
	getSubscription getSubscriptionFunc
}

var _ billing.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithSessionCreator replaces the checkout session API call.
func WithSessionCreator(fn func(*stripelib.CheckoutSessionParams) (*stripelib.CheckoutSession, error)) Option {
	return func(p *Provider) {
		if fn != nil {
			p.createSession = fn
		}
	}
}

// WithSubscriptionGetter replaces the subscription retrieval API call.
func WithSubscriptionGetter(fn func(string, *stripelib.SubscriptionParams) (*stripelib.Subscription, error)) Option {
	return func(p *Provider) {
		if fn != nil {
			p.getSubscription = fn
		}
	}
}

// New returns a Stripe provider. API clients are bound to cfg.SecretKey
// rather than the stripe-go package globals.
func New(cfg Config, opts ...Option) *Provider {
	backend := stripelib.GetBackend(stripelib.APIBackend)
	key := strings.TrimSpace(cfg.SecretKey)
	sessions := session.Client{B: backend, Key: key}
	subscriptions := subscription.Client{B: backend, Key: key}

	p := &Provider{
		webhookSecret:   strings.TrimSpace(cfg.WebhookSecret),
		tolerance:       cfg.WebhookTolerance,
		createSession:   sessions.New,
		getSubscription: subscriptions.Get,
	}
	if p.tolerance <= 0 {
		p.tolerance = 5 * time.Minute
	}
	if key == "" {
		p.createSession = func(*stripelib.CheckoutSessionParams) (*stripelib.CheckoutSession, error) {
			return nil, errors.Join(billing.ErrConfiguration, errors.New("STRIPE_SECRET_KEY is empty"))
		}
		p.getSubscription = func(string, *stripelib.SubscriptionParams) (*stripelib.Subscription, error) {
			return nil, errors.Join(billing.ErrConfiguration, errors.New("STRIPE_SECRET_KEY is empty"))
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string            { return Name }
func (p *Provider) SignatureHeader() string { return SignatureHeader }

// Correlation retrieves the subscription and reads its metadata.
func (p *Provider) Correlation(ctx context.Context, subscriptionID string) (billing.Correlation, error) {
	params := &stripelib.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.getSubscription(subscriptionID, params)
	if err != nil {
		var stripeErr *stripelib.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return billing.Correlation{}, errors.Join(billing.ErrSubscriptionMissing, err)
		}
		if errors.Is(err, billing.ErrConfiguration) {
			return billing.Correlation{}, err
		}
		return billing.Correlation{}, errors.Join(billing.ErrProviderUnavailable, err)
	}
	return billing.CorrelationFromMetadata(sub.Metadata), nil
}

// CreateCheckout opens a subscription-mode checkout session. The
// correlation metadata is written to the session and to subscription_data
// so that later subscription events carry it too.
func (p *Provider) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutLink, error) {
	md := req.Correlation.Metadata()

	params := &stripelib.CheckoutSessionParams{
		Mode:              stripelib.String(string(stripelib.CheckoutSessionModeSubscription)),
		SuccessURL:        stripelib.String(req.SuccessURL),
		CancelURL:         stripelib.String(req.CancelURL),
		ClientReferenceID: stripelib.String(req.Correlation.UserID),
		LineItems: []*stripelib.CheckoutSessionLineItemParams{{
			Price:    stripelib.String(req.PriceID),
			Quantity: stripelib.Int64(1),
		}},
		SubscriptionData: &stripelib.CheckoutSessionSubscriptionDataParams{
			Metadata: md,
		},
	}
	params.Context = ctx
	params.Metadata = md
	if req.Email != "" {
		params.CustomerEmail = stripelib.String(req.Email)
	}

	s, err := p.createSession(params)
	if err != nil {
		if errors.Is(err, billing.ErrConfiguration) {
			return nil, err
		}
		return nil, errors.Join(billing.ErrProviderUnavailable, err)
	}
	if s == nil || s.URL == "" {
		return nil, errors.Join(billing.ErrProviderUnavailable, fmt.Errorf("checkout session %q has no url", sessionID(s)))
	}

	return &billing.CheckoutLink{ID: s.ID, URL: s.URL}, nil
}

func sessionID(s *stripelib.CheckoutSession) string {
	if s == nil {
		return ""
	}
	return s.ID
}
