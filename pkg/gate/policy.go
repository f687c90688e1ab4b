package gate

import (
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"
)

// Policy is the static route classification the gate decides against.
//
// Patterns are go-wildcard v2 expressions matched against the cleaned
// request path (see CleanPath):
//
//   - '*' matches any sequence of characters, so "/sign-up*" covers
//     "/sign-up" and everything below it
//   - '?' matches zero or one character
//   - '.' matches exactly one character, not only a literal dot
//
// A pattern such as "/robots.txt" therefore also matches "/robots-txt".
// There is no escape syntax; keep dots out of Public patterns unless the
// looser match is acceptable.
type Policy struct {
	Public    []string // reachable without a session
	Entitled  []string // require an active subscription
	GuestOnly []string // signed-in users are sent to HomeURL
	APIPrefix string   // unauthenticated requests under it get 401 instead of a redirect

	SignInURL string
	OfferURL  string
	HomeURL   string
}

// DefaultPolicy returns the stock route table.
func DefaultPolicy() Policy {
	return Policy{
		Public: []string{
			"/",
			"/sign-up*",
			"/subscribe*",
			"/api/webhook*",
			"/api/check-subscription*",
			"/healthz",
			"/readyz",
			"/metrics",
			"/gate/verify",
		},
		Entitled:  []string{"/mealplan*"},
		GuestOnly: []string{"/sign-up*"},
		APIPrefix: "/api",
		SignInURL: "/sign-up",
		OfferURL:  "/subscribe",
		HomeURL:   "/mealplan",
	}
}

func (p Policy) isPublic(path string) bool    { return matchAny(p.Public, path) }
func (p Policy) isEntitled(path string) bool  { return matchAny(p.Entitled, path) }
func (p Policy) isGuestOnly(path string) bool { return matchAny(p.GuestOnly, path) }

func (p Policy) isAPI(path string) bool {
	prefix := strings.TrimRight(p.APIPrefix, "/")
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if wildcard.Match(pattern, path) {
			return true
		}
	}
	return false
}
