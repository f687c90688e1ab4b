package profile

import (
	"strings"
	"time"
)

// Tier is the subscription plan a user purchased.
type Tier string

const (
	TierWeek  Tier = "week"
	TierMonth Tier = "month"
	TierYear  Tier = "year"
)

// Tiers returns the closed set of purchasable tiers.
func Tiers() []Tier {
	return []Tier{TierWeek, TierMonth, TierYear}
}

// Valid reports whether t belongs to the closed tier enumeration.
func (t Tier) Valid() bool {
	switch t {
	case TierWeek, TierMonth, TierYear:
		return true
	default:
		return false
	}
}

func (t Tier) String() string {
	return string(t)
}

// ParseTier converts a plan identifier into a Tier.
// Surrounding whitespace is ignored, case is not.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.TrimSpace(s))
	if !t.Valid() {
		return "", ErrUnknownTier
	}
	return t, nil
}

// Profile is the local entitlement record of one user.
// UserID is the primary key; exactly one Profile exists per user.
type Profile struct {
	UserID                 string
	Email                  string // best effort, refreshed on every purchase
	SubscriptionActive     bool
	SubscriptionTier       Tier   // empty until the first completed purchase
	ExternalSubscriptionID string // empty until the first completed purchase
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Entitled reports whether the profile grants access to protected resources.
// A nil profile is never entitled.
func (p *Profile) Entitled() bool {
	return p != nil && p.SubscriptionActive
}

// HasPurchased reports whether a checkout completion was ever applied.
func (p *Profile) HasPurchased() bool {
	return p != nil && p.SubscriptionTier != ""
}

// ActiveFields is the set of fields written by a completed purchase.
type ActiveFields struct {
	Email          string
	Tier           Tier
	SubscriptionID string
}

// Validate enforces that tier and subscription id are always written together.
func (f ActiveFields) Validate() error {
	if !f.Tier.Valid() {
		return ErrUnknownTier
	}
	if strings.TrimSpace(f.SubscriptionID) == "" {
		return ErrMissingSubscriptionID
	}
	return nil
}
