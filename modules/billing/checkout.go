package billing

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/checkout"
	"github.com/dmitrymomot/subsync/pkg/identity"
	"github.com/dmitrymomot/subsync/pkg/logger"
)

type checkoutBody struct {
	URL string `json:"url"`
}

// createCheckout accepts {"planType","userId","email"}. For authenticated
// callers userId defaults to the session user and may not name anyone else.
func (m *module) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := decodeJSON(r, &req); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrUnsupportedMediaType) {
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, status, err.Error())
		return
	}

	if sessionUser := identity.UserIDFromContext(r.Context()); sessionUser != "" {
		switch req.UserID {
		case "":
			req.UserID = sessionUser
		case sessionUser:
		default:
			writeError(w, http.StatusForbidden, "userId does not match the signed-in user")
			return
		}
	}

	link, err := m.checkout.Create(r.Context(), req)
	switch {
	case errors.Is(err, checkout.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Plan type, User ID, and Email are required.")
	case errors.Is(err, billing.ErrUnknownPlan):
		writeError(w, http.StatusBadRequest, "Invalid plan type.")
	case errors.Is(err, billing.ErrConfiguration):
		m.log.ErrorContext(r.Context(), "checkout misconfigured", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Checkout is not configured.")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	default:
		writeJSON(w, http.StatusOK, checkoutBody{URL: link.URL})
	}
}
