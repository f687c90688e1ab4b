package identity

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/subsync/pkg/logger"
)

// Middleware resolves the caller and stores the user id in the request
// context. Requests without valid credentials continue anonymously; access
// decisions belong to the gate.
func Middleware(res Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := res.Resolve(r)
			switch {
			case err == nil:
				r = r.WithContext(WithUserID(r.Context(), userID))
			case errors.Is(err, ErrUnauthenticated):
			default:
				log.DebugContext(r.Context(), "rejected session token", logger.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser responds 401 when the request context has no user id.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
