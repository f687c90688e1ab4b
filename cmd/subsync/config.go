package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/billing/paddle"
	"github.com/dmitrymomot/subsync/pkg/billing/stripe"
	"github.com/dmitrymomot/subsync/pkg/checkout"
	"github.com/dmitrymomot/subsync/pkg/clientip"
	"github.com/dmitrymomot/subsync/pkg/config"
	"github.com/dmitrymomot/subsync/pkg/gate"
	"github.com/dmitrymomot/subsync/pkg/httpserver"
	"github.com/dmitrymomot/subsync/pkg/identity"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/ratelimiter"
	"github.com/dmitrymomot/subsync/pkg/requestid"
)

// Store drivers accepted by STORE_DRIVER.
const (
	driverPostgres = "postgres"
	driverMongo    = "mongo"
	driverSQLite   = "sqlite"
	driverMemory   = "memory"
)

var errUnknownDriver = errors.New("unknown store driver")

// appConfig is the process-wide configuration. Backend specific settings
// (pg, mongo, redis, sqlite) are loaded on demand because some of them
// carry required variables.
type appConfig struct {
	Log      logger.Config
	HTTP     httpserver.Config
	Gate     gate.Config
	Checkout checkout.Config
	Identity identity.Config
	ClientIP clientip.Config
	Limit    ratelimiter.Config `envPrefix:"RATELIMIT_"`

	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"memory"`
	BillingProvider string        `env:"BILLING_PROVIDER" envDefault:"stripe"`
	LookupTimeout   time.Duration `env:"RECONCILE_LOOKUP_TIMEOUT" envDefault:"10s"`
	WebhookMaxBody  int64         `env:"WEBHOOK_MAX_BODY_BYTES" envDefault:"1048576"`
	UpstreamURL     string        `env:"UPSTREAM_URL"`
}

func loadEnvFiles(cmd *cobra.Command) error {
	files, err := cmd.Flags().GetStringSlice("env-file")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	return config.LoadEnv(files...)
}

func loadAppConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Gate.ValidateCache(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg logger.Config) (*slog.Logger, error) {
	log, err := logger.NewFromConfig(cfg,
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			identity.LoggerExtractor(),
			clientip.LoggerExtractor(),
		),
	)
	if err != nil {
		return nil, err
	}
	logger.SetAsDefault(log)
	return log, nil
}

// newProvider builds the configured billing provider and its price catalog.
func newProvider(name string) (billing.Provider, billing.Catalog, error) {
	var catCfg billing.CatalogConfig

	switch name {
	case stripe.Name:
		var cfg stripe.Config
		if err := config.Load(&cfg); err != nil {
			return nil, nil, err
		}
		if err := config.Load(&catCfg, config.WithPrefix("STRIPE_")); err != nil {
			return nil, nil, err
		}
		cat, err := catCfg.Catalog()
		if err != nil {
			return nil, nil, err
		}
		return stripe.New(cfg), cat, nil

	case paddle.Name:
		var cfg paddle.Config
		if err := config.Load(&cfg); err != nil {
			return nil, nil, err
		}
		if err := config.Load(&catCfg, config.WithPrefix("PADDLE_")); err != nil {
			return nil, nil, err
		}
		cat, err := catCfg.Catalog()
		if err != nil {
			return nil, nil, err
		}
		p, err := paddle.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, cat, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown billing provider %q", billing.ErrConfiguration, name)
	}
}
