package paddle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paddlesdk "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/subsync/pkg/billing"
)

// Name is the provider identifier used in routes, logs and metrics.
const Name = "paddle"

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Paddle-Signature"

// MetadataEmail is the custom_data key used to carry the buyer email, since
// Paddle transaction webhooks only reference the customer by id.
const MetadataEmail = "email"

type transactionCreator interface {
	CreateTransaction(ctx context.Context, req *paddlesdk.CreateTransactionRequest) (*paddlesdk.Transaction, error)
}

type subscriptionGetter interface {
	GetSubscription(ctx context.Context, req *paddlesdk.GetSubscriptionRequest) (*paddlesdk.Subscription, error)
}

// Provider implements billing.Provider on top of the Paddle Billing SDK.
type Provider struct {
	verifier      *paddlesdk.WebhookVerifier
	tolerance     time.Duration
	transactions  transactionCreator
	subscriptions subscriptionGetter
	now           func() time.Time
}

var _ billing.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithTransactionCreator replaces the transactions API client.
func WithTransactionCreator(c transactionCreator) Option {
	return func(p *Provider) {
		if c != nil {
			p.transactions = c
		}
	}
}

// WithSubscriptionGetter replaces the subscriptions API client.
func WithSubscriptionGetter(g subscriptionGetter) Option {
	return func(p *Provider) {
		if g != nil {
			p.subscriptions = g
		}
	}
}

// WithClock overrides the time source used for the signature age check.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// New returns a Paddle provider. An empty API key is allowed; API calls then
// fail with billing.ErrConfiguration while webhook verification keeps
// working.
func New(cfg Config, opts ...Option) (*Provider, error) {
	p := &Provider{
		tolerance: cfg.WebhookTolerance,
		now:       time.Now,
	}
	if p.tolerance <= 0 {
		p.tolerance = 5 * time.Minute
	}
	if secret := strings.TrimSpace(cfg.WebhookSecret); secret != "" {
		p.verifier = paddlesdk.NewWebhookVerifier(secret)
	}

	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		var (
			client *paddlesdk.SDK
			err    error
		)
		switch strings.ToLower(cfg.Environment) {
		case "sandbox":
			client, err = paddlesdk.NewSandbox(key)
		case "production", "":
			client, err = paddlesdk.New(key)
		default:
			return nil, errors.Join(billing.ErrConfiguration, fmt.Errorf("invalid paddle environment %q", cfg.Environment))
		}
		if err != nil {
			return nil, errors.Join(billing.ErrConfiguration, err)
		}
		p.transactions = client.TransactionsClient
		p.subscriptions = client.SubscriptionsClient
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string            { return Name }
func (p *Provider) SignatureHeader() string { return SignatureHeader }

// Correlation fetches the subscription and reads its custom_data.
func (p *Provider) Correlation(ctx context.Context, subscriptionID string) (billing.Correlation, error) {
	if p.subscriptions == nil {
		return billing.Correlation{}, errors.Join(billing.ErrConfiguration, errors.New("PADDLE_API_KEY is empty"))
	}

	sub, err := p.subscriptions.GetSubscription(ctx, &paddlesdk.GetSubscriptionRequest{SubscriptionID: subscriptionID})
	if err != nil {
		return billing.Correlation{}, errors.Join(billing.ErrProviderUnavailable, err)
	}
	if sub == nil {
		return billing.Correlation{}, billing.ErrSubscriptionMissing
	}
	return billing.CorrelationFromAny(sub.CustomData), nil
}

// CreateCheckout creates a transaction for one price. Paddle copies the
// transaction custom_data onto the subscription it creates, so the
// correlation keys reach later subscription events.
func (p *Provider) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutLink, error) {
	if p.transactions == nil {
		return nil, errors.Join(billing.ErrConfiguration, errors.New("PADDLE_API_KEY is empty"))
	}

	item := paddlesdk.NewCreateTransactionItemsTransactionItemFromCatalog(&paddlesdk.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	custom := paddlesdk.CustomData{
		billing.MetadataUserID: req.Correlation.UserID,
		billing.MetadataPlan:   req.Correlation.Plan,
	}
	if req.Email != "" {
		custom[MetadataEmail] = req.Email
	}

	txReq := &paddlesdk.CreateTransactionRequest{
		Items:      []paddlesdk.CreateTransactionItems{*item},
		CustomData: custom,
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddlesdk.TransactionCheckout{URL: paddlesdk.PtrTo(req.SuccessURL)}
	}

	tx, err := p.transactions.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, errors.Join(billing.ErrProviderUnavailable, err)
	}
	if tx == nil || tx.Checkout == nil || tx.Checkout.URL == nil || *tx.Checkout.URL == "" {
		return nil, errors.Join(billing.ErrProviderUnavailable, errors.New("paddle returned no checkout url"))
	}

	return &billing.CheckoutLink{ID: tx.ID, URL: *tx.Checkout.URL}, nil
}
