package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/profile"
)

// Request asks for a checkout of one plan on behalf of a user.
type Request struct {
	Plan   string `json:"planType" validate:"required"`
	UserID string `json:"userId" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

// Initiator opens provider checkouts carrying the correlation metadata that
// later webhook events are reconciled by.
type Initiator struct {
	creator  billing.CheckoutCreator
	catalog  billing.Catalog
	cfg      Config
	validate *validator.Validate
	log      *slog.Logger
}

// Option configures an Initiator.
type Option func(*Initiator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Initiator) {
		if l != nil {
			i.log = l
		}
	}
}

// New returns an Initiator. Panics if creator is nil.
// Missing base URL or prices are reported per request as
// billing.ErrConfiguration.
func New(creator billing.CheckoutCreator, catalog billing.Catalog, cfg Config, opts ...Option) *Initiator {
	if creator == nil {
		panic("checkout: checkout creator is required")
	}
	i := &Initiator{
		creator:  creator,
		catalog:  catalog,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Create validates req, resolves the plan price and opens a checkout.
//
// Errors: ErrInvalidRequest for missing or malformed fields,
// billing.ErrUnknownPlan for a plan outside week, month and year,
// billing.ErrConfiguration when the base URL or price is not configured,
// billing.ErrProviderUnavailable when the provider call fails.
func (i *Initiator) Create(ctx context.Context, req Request) (*billing.CheckoutLink, error) {
	req.Plan = strings.TrimSpace(req.Plan)
	req.UserID = strings.TrimSpace(req.UserID)
	req.Email = strings.TrimSpace(req.Email)

	if err := i.validate.StructCtx(ctx, req); err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}

	tier, err := profile.ParseTier(req.Plan)
	if err != nil {
		return nil, errors.Join(billing.ErrUnknownPlan, err)
	}

	base, err := i.baseURL()
	if err != nil {
		return nil, err
	}

	priceID, err := i.catalog.PriceID(tier)
	if err != nil {
		return nil, err
	}

	corr := billing.Correlation{UserID: req.UserID, Plan: tier.String()}
	link, err := i.creator.CreateCheckout(ctx, billing.CheckoutRequest{
		PriceID:     priceID,
		Tier:        tier,
		Email:       req.Email,
		Correlation: corr,
		SuccessURL:  base + i.cfg.SuccessPath,
		CancelURL:   base + i.cfg.CancelPath,
	})
	if err != nil {
		i.log.ErrorContext(ctx, "checkout creation failed",
			logger.Component("checkout"), logger.UserID(req.UserID), logger.Error(err))
		return nil, err
	}

	i.log.InfoContext(ctx, "checkout created",
		logger.Component("checkout"),
		logger.UserID(req.UserID),
		slog.String("tier", tier.String()),
		slog.String("checkout_id", link.ID),
	)
	return link, nil
}

func (i *Initiator) baseURL() (string, error) {
	raw := strings.TrimRight(strings.TrimSpace(i.cfg.BaseURL), "/")
	if raw == "" {
		return "", errors.Join(billing.ErrConfiguration, errors.New("APP_BASE_URL is empty"))
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.Join(billing.ErrConfiguration, fmt.Errorf("APP_BASE_URL %q is not an absolute url", raw))
	}
	return raw, nil
}
