package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	billingmod "github.com/dmitrymomot/subsync/modules/billing"
	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/checkout"
	"github.com/dmitrymomot/subsync/pkg/clientip"
	"github.com/dmitrymomot/subsync/pkg/config"
	"github.com/dmitrymomot/subsync/pkg/gate"
	"github.com/dmitrymomot/subsync/pkg/httpserver"
	"github.com/dmitrymomot/subsync/pkg/identity"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/metrics"
	"github.com/dmitrymomot/subsync/pkg/profile"
	"github.com/dmitrymomot/subsync/pkg/ratelimiter"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/redis"
	"github.com/dmitrymomot/subsync/pkg/requestid"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook receiver, entitlement API and access gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFiles(cmd); err != nil {
			return err
		}
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNew(reg)

	provider, catalog, err := newProvider(cfg.BillingProvider)
	if err != nil {
		return err
	}
	if err := catalog.Validate(); err != nil {
		log.WarnContext(ctx, "price catalog incomplete; checkout for missing tiers will fail", logger.Error(err))
	}

	store, err := openStore(ctx, cfg.StoreDriver, false, log)
	if err != nil {
		return err
	}
	defer store.close(context.WithoutCancel(ctx))
	checks := []httpserver.Check{store.check}

	checker, redisCheck, closeChecker, err := newChecker(ctx, cfg.Gate, store, m, log)
	if err != nil {
		return err
	}
	defer closeChecker()
	if redisCheck != nil {
		checks = append(checks, *redisCheck)
	}

	dispatcher := reconcile.NewDispatcher(
		reconcile.WithDispatcherLogger(log),
		reconcile.WithDispatcherMetrics(m),
	)
	reconcile.New(store, provider,
		reconcile.WithInvalidator(checker),
		reconcile.WithLookupTimeout(cfg.LookupTimeout),
		reconcile.WithLogger(log),
	).Register(dispatcher)

	resolver, err := newResolver(cfg.Identity)
	if err != nil {
		return err
	}
	if cfg.Identity.SigningKey == "" {
		log.WarnContext(ctx, "IDENTITY_JWT_SECRET is empty; every request is treated as anonymous")
	}

	g := gate.New(cfg.Gate.Policy(), checker, gate.WithLogger(log), gate.WithMetrics(m))

	var initiator *checkout.Initiator
	if cfg.Checkout.BaseURL != "" {
		initiator = checkout.New(provider, catalog, cfg.Checkout, checkout.WithLogger(log))
	} else {
		log.WarnContext(ctx, "APP_BASE_URL is empty; checkout endpoint disabled")
	}

	rateLimit, closeLimiter, err := newRateLimit(cfg.Limit, m, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer)
	r.Use(cfg.ClientIP.Resolver().Middleware)
	r.Use(identity.Middleware(resolver, log))
	r.Use(g.Middleware(nil))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, cfg.HTTP.HealthTimeout, checks...))
	r.Handle("/metrics", metrics.Handler(reg))
	r.Handle("/gate/verify", billingmod.ForwardAuthHandler(g, resolver))
	r.Mount("/api", billingmod.Router(billingmod.RouterOptions{
		Providers:    []billing.Provider{provider},
		Dispatcher:   dispatcher,
		Store:        store,
		Checkout:     initiator,
		RateLimit:    rateLimit,
		Logger:       log,
		Metrics:      m,
		MaxBodyBytes: cfg.WebhookMaxBody,
	}))

	if cfg.UpstreamURL != "" {
		proxy, err := newUpstreamProxy(cfg.UpstreamURL, log)
		if err != nil {
			return err
		}
		r.NotFound(proxy.ServeHTTP)
	}

	log.InfoContext(ctx, "starting subsync",
		"version", Version,
		logger.Provider(provider.Name()),
		"store", cfg.StoreDriver,
		"gate_cache", cfg.Gate.Cache,
	)

	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, r)
}

// checkerWithInvalidation is what both the gate and the reconciler need.
type checkerWithInvalidation interface {
	gate.Checker
	gate.Invalidator
}

// newChecker layers the configured cache over the store lookup.
func newChecker(ctx context.Context, cfg gate.Config, store profile.Store, m *metrics.Metrics, log *slog.Logger) (checkerWithInvalidation, *httpserver.Check, func(), error) {
	base := gate.NewStoreChecker(store)

	switch cfg.Cache {
	case gate.CacheNone:
		return base, nil, func() {}, nil

	case gate.CacheRedis:
		var rcfg redis.Config
		if err := config.Load(&rcfg); err != nil {
			return nil, nil, nil, err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return nil, nil, nil, err
		}
		checker := gate.NewRedisChecker(client, base,
			gate.WithRedisTTL(cfg.CacheTTL),
			gate.WithRedisKeyPrefix(cfg.RedisKeyPrefix),
			gate.WithRedisLogger(log),
			gate.WithRedisMetrics(m),
		)
		check := &httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)}
		return checker, check, func() { _ = client.Close() }, nil

	default:
		checker := gate.NewCachedChecker(base,
			gate.WithCacheSize(cfg.CacheSize),
			gate.WithCacheTTL(cfg.CacheTTL),
			gate.WithCacheMetrics(m),
		)
		return checker, nil, func() {}, nil
	}
}

// newResolver returns the JWT resolver, or an always-anonymous resolver when
// no signing key is configured.
func newResolver(cfg identity.Config) (identity.Resolver, error) {
	if cfg.SigningKey == "" {
		return identity.ResolverFunc(func(*http.Request) (string, error) {
			return "", identity.ErrUnauthenticated
		}), nil
	}
	return identity.NewJWTResolver(cfg)
}

// newRateLimit throttles the public API per client address. It returns a
// nil middleware when RATELIMIT_CAPACITY is zero.
func newRateLimit(cfg ratelimiter.Config, m *metrics.Metrics, log *slog.Logger) (func(http.Handler) http.Handler, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}
	store := ratelimiter.NewMemoryStore()
	bucket, err := ratelimiter.NewBucket(store, cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	byIP := func(r *http.Request) string { return clientip.FromContext(r.Context()) }
	mw := ratelimiter.Middleware(bucket, byIP,
		ratelimiter.WithName("public_api"),
		ratelimiter.WithLogger(log),
		ratelimiter.WithMetrics(m),
	)
	return mw, store.Close, nil
}
