package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/checkout"
	"github.com/dmitrymomot/subsync/pkg/identity"
	"github.com/dmitrymomot/subsync/pkg/metrics"
	"github.com/dmitrymomot/subsync/pkg/profile"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
)

// DefaultMaxBodyBytes caps webhook payloads.
const DefaultMaxBodyBytes int64 = 1 << 20

// RouterOptions wires the module. Providers, Dispatcher and Store are
// required; Checkout is mounted only when set.
type RouterOptions struct {
	// Providers receive webhooks at /webhook/{name}. The first one also
	// serves /webhook.
	Providers  []billing.Provider
	Dispatcher *reconcile.Dispatcher
	Store      profile.Store
	Checkout   *checkout.Initiator

	// RateLimit, when set, wraps the unauthenticated lookup and checkout
	// routes. Webhooks are never throttled.
	RateLimit func(http.Handler) http.Handler

	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	MaxBodyBytes int64
}

type module struct {
	providers  map[string]billing.Provider
	fallback   billing.Provider
	dispatcher *reconcile.Dispatcher
	store      profile.Store
	checkout   *checkout.Initiator
	log        *slog.Logger
	metrics    *metrics.Metrics
	maxBody    int64
}

// Router creates the billing API router. Mount it under /api:
//
//	r.Mount("/api", billing.Router(billing.RouterOptions{
//	    Providers:  []pkgbilling.Provider{stripeProvider},
//	    Dispatcher: dispatcher,
//	    Store:      store,
//	    Checkout:   initiator,
//	}))
//
// Routes:
//
//	POST /webhook                        first provider
//	POST /webhook/{provider}             provider by name
//	GET  /check-subscription?userId=     entitlement query
//	GET  /profile/subscription-status    authenticated caller's status
//	POST /checkout                       open a checkout session
func Router(opts RouterOptions) chi.Router {
	if len(opts.Providers) == 0 {
		panic("billing: at least one provider is required")
	}
	if opts.Dispatcher == nil {
		panic("billing: dispatcher is required")
	}
	if opts.Store == nil {
		panic("billing: profile store is required")
	}

	m := &module{
		providers:  make(map[string]billing.Provider, len(opts.Providers)),
		fallback:   opts.Providers[0],
		dispatcher: opts.Dispatcher,
		store:      opts.Store,
		checkout:   opts.Checkout,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		maxBody:    opts.MaxBodyBytes,
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.maxBody <= 0 {
		m.maxBody = DefaultMaxBodyBytes
	}
	for _, p := range opts.Providers {
		m.providers[p.Name()] = p
	}

	r := chi.NewRouter()
	r.Post("/webhook", m.webhook(m.fallback))
	r.Post("/webhook/{provider}", m.webhookByName)
	r.With(identity.RequireUser).Get("/profile/subscription-status", m.subscriptionStatus)
	r.Group(func(r chi.Router) {
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}
		r.Get("/check-subscription", m.checkSubscription)
		if m.checkout != nil {
			r.Post("/checkout", m.createCheckout)
		}
	})
	return r
}

func (m *module) webhookByName(w http.ResponseWriter, r *http.Request) {
	p, ok := m.providers[chi.URLParam(r, "provider")]
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownProvider.Error())
		return
	}
	m.webhook(p)(w, r)
}
