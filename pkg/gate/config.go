package gate

import (
	"fmt"
	"time"
)

// Cache kinds accepted by Config.Cache.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config overrides DefaultPolicy and selects the entitlement cache.
// Empty route lists keep the defaults. Route lists use the pattern syntax
// documented on Policy, where '?' and '.' are wildcards too.
type Config struct {
	PublicRoutes    []string      `env:"GATE_PUBLIC_ROUTES" envSeparator:","`
	EntitledRoutes  []string      `env:"GATE_ENTITLED_ROUTES" envSeparator:","`
	GuestOnlyRoutes []string      `env:"GATE_GUEST_ONLY_ROUTES" envSeparator:","`
	SignInURL       string        `env:"GATE_SIGN_IN_URL"`
	OfferURL        string        `env:"GATE_OFFER_URL"`
	HomeURL         string        `env:"GATE_HOME_URL"`
	Cache           string        `env:"GATE_CACHE" envDefault:"memory"`
	CacheTTL        time.Duration `env:"GATE_CACHE_TTL" envDefault:"30s"`
	CacheSize       int           `env:"GATE_CACHE_SIZE" envDefault:"10000"`
	RedisKeyPrefix  string        `env:"GATE_REDIS_KEY_PREFIX" envDefault:"subsync:entitled:"`
}

// Policy merges the configured overrides into DefaultPolicy.
func (c Config) Policy() Policy {
	p := DefaultPolicy()
	if len(c.PublicRoutes) > 0 {
		p.Public = c.PublicRoutes
	}
	if len(c.EntitledRoutes) > 0 {
		p.Entitled = c.EntitledRoutes
	}
	if len(c.GuestOnlyRoutes) > 0 {
		p.GuestOnly = c.GuestOnlyRoutes
	}
	if c.SignInURL != "" {
		p.SignInURL = c.SignInURL
	}
	if c.OfferURL != "" {
		p.OfferURL = c.OfferURL
	}
	if c.HomeURL != "" {
		p.HomeURL = c.HomeURL
	}
	return p
}

// ValidateCache reports an unknown cache kind.
func (c Config) ValidateCache() error {
	switch c.Cache {
	case CacheMemory, CacheRedis, CacheNone, "":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheKind, c.Cache)
	}
}
