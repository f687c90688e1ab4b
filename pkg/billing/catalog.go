package billing

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/subsync/pkg/profile"
)

// Catalog maps each tier to a provider price reference.
type Catalog map[profile.Tier]string

// PriceID returns the price for tier. An invalid tier yields ErrUnknownPlan;
// a valid tier without a price yields ErrConfiguration.
func (c Catalog) PriceID(tier profile.Tier) (string, error) {
	if !tier.Valid() {
		return "", errors.Join(ErrUnknownPlan, fmt.Errorf("tier %q", tier))
	}
	id := c[tier]
	if id == "" {
		return "", errors.Join(ErrConfiguration, fmt.Errorf("no price configured for tier %q", tier))
	}
	return id, nil
}

// Validate reports the first tier without a price.
func (c Catalog) Validate() error {
	for _, tier := range profile.Tiers() {
		if _, err := c.PriceID(tier); err != nil {
			return err
		}
	}
	return nil
}

// CatalogConfig reads prices from the environment. Load it with a provider
// prefix, e.g. config.WithPrefix("STRIPE_") for STRIPE_PRICE_WEEKLY.
type CatalogConfig struct {
	Weekly  string `env:"PRICE_WEEKLY"`
	Monthly string `env:"PRICE_MONTHLY"`
	Yearly  string `env:"PRICE_YEARLY"`
	File    string `env:"PRICE_CATALOG_FILE"` // File, when set, is a YAML catalog that overrides the individual prices.
}

// Catalog resolves the configuration into a Catalog.
func (c CatalogConfig) Catalog() (Catalog, error) {
	if c.File != "" {
		return LoadCatalogFile(c.File)
	}
	return Catalog{
		profile.TierWeek:  c.Weekly,
		profile.TierMonth: c.Monthly,
		profile.TierYear:  c.Yearly,
	}, nil
}

// LoadCatalogFile reads a YAML catalog keyed by tier:
//
//	week: price_1
//	month: price_2
//	year: price_3
//
// Unknown tiers are rejected.
func LoadCatalogFile(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(raw []byte) (Catalog, error) {
	var entries map[string]string
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}

	cat := make(Catalog, len(entries))
	for k, v := range entries {
		tier, err := profile.ParseTier(k)
		if err != nil {
			return nil, errors.Join(ErrConfiguration, err)
		}
		cat[tier] = v
	}
	return cat, nil
}
