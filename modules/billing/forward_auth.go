package billing

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/subsync/pkg/gate"
	"github.com/dmitrymomot/subsync/pkg/identity"
)

// UserHeader carries the resolved user id on allowed forward-auth replies.
const UserHeader = "X-Auth-User"

// ForwardAuthHandler answers reverse-proxy subrequests (Traefik forwardAuth,
// nginx auth_request) for the path in X-Forwarded-Uri or X-Original-URI:
// 200 to allow, 401 to deny, or a redirect to the verdict location.
// Without a usable forwarded URI the request is denied.
func ForwardAuthHandler(g *gate.Gate, res identity.Resolver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, ok := forwardedPath(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, ErrMissingForwardedURI.Error())
			return
		}

		var userID string
		if res != nil {
			if id, err := res.Resolve(r); err == nil {
				userID = id
			}
		}

		v := g.Decide(r.Context(), gate.Request{Path: path, UserID: userID})
		switch v.Decision {
		case gate.DecisionAllow:
			if userID != "" {
				w.Header().Set(UserHeader, userID)
			}
			w.WriteHeader(http.StatusOK)
		case gate.DecisionDeny:
			writeError(w, http.StatusUnauthorized, "unauthorized")
		default:
			http.Redirect(w, r, v.Location, http.StatusFound)
		}
	})
}

// forwardedPath returns the path of the first forwarded URI header that is
// set. A set but unparseable header is not skipped in favour of the next.
func forwardedPath(r *http.Request) (string, bool) {
	for _, h := range []string{"X-Forwarded-Uri", "X-Original-URI"} {
		raw := r.Header.Get(h)
		if raw == "" {
			continue
		}
		u, err := url.ParseRequestURI(raw)
		if err != nil || !strings.HasPrefix(u.Path, "/") {
			return "", false
		}
		return u.Path, true
	}
	return "", false
}
