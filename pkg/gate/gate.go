package gate

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/metrics"
)

// Gate makes the single access decision for a request.
type Gate struct {
	policy  Policy
	checker Checker
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetrics counts decisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// New returns a Gate. Panics if checker is nil.
func New(policy Policy, checker Checker, opts ...Option) *Gate {
	if checker == nil {
		panic("gate: checker is required")
	}
	g := &Gate{
		policy:  policy,
		checker: checker,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide classifies req:
//
//   - anonymous on a public route: allow
//   - anonymous on an API route: deny
//   - anonymous elsewhere: redirect to sign-in
//   - signed in on a guest-only route: redirect home
//   - signed in on an entitled route: allow only with an active
//     subscription, otherwise redirect to the offer
//   - anything else: allow
//
// Entitlement lookup failures redirect to the offer. req.Path is matched
// in its CleanPath form.
func (g *Gate) Decide(ctx context.Context, req Request) Verdict {
	req.Path = CleanPath(req.Path)
	v := g.decide(ctx, req)
	g.metrics.GateDecision(string(v.Decision))
	return v
}

func (g *Gate) decide(ctx context.Context, req Request) Verdict {
	p := g.policy

	if req.UserID == "" {
		switch {
		case p.isPublic(req.Path):
			return allow("public route")
		case p.isAPI(req.Path):
			return deny("unauthenticated")
		default:
			return redirect(p.SignInURL, "unauthenticated")
		}
	}

	if p.isGuestOnly(req.Path) {
		return redirect(p.HomeURL, "already signed in")
	}

	if p.isEntitled(req.Path) {
		entitled, err := g.checker.Entitled(ctx, req.UserID)
		if err != nil {
			g.log.ErrorContext(ctx, "entitlement check failed",
				logger.Component("gate"),
				logger.UserID(req.UserID),
				slog.String("path", req.Path),
				logger.Error(err),
			)
			return redirect(p.OfferURL, "entitlement check failed")
		}
		if !entitled {
			return redirect(p.OfferURL, "no active subscription")
		}
		return allow("entitled")
	}

	return allow("authenticated")
}
