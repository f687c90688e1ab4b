package gate

import (
	"path"
	"strings"
)

// CleanPath returns the canonical form of an absolute URL path: duplicate
// slashes collapsed, dot segments resolved, no trailing slash. Decisions are
// always made against this form, so "//mealplan" and "/x/../mealplan" are
// classified like "/mealplan".
func CleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
