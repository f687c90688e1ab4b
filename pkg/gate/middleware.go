package gate

import (
	"net/http"

	"github.com/dmitrymomot/subsync/pkg/identity"
)

// Middleware enforces Decide on every request. The user id is taken from
// the request context when an identity middleware already ran, otherwise
// from res. res may be nil.
func (g *Gate) Middleware(res identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := identity.UserIDFromContext(r.Context())
			if userID == "" && res != nil {
				if id, err := res.Resolve(r); err == nil {
					userID = id
					r = r.WithContext(identity.WithUserID(r.Context(), id))
				}
			}

			v := g.Decide(r.Context(), Request{Path: r.URL.Path, UserID: userID})
			switch v.Decision {
			case DecisionAllow:
				next.ServeHTTP(w, r)
			case DecisionDeny:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			default:
				http.Redirect(w, r, v.Location, http.StatusTemporaryRedirect)
			}
		})
	}
}
