package billing

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/subsync/pkg/identity"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/profile"
)

type checkSubscriptionBody struct {
	SubscriptionActive bool `json:"subscriptionActive"`
}

func (m *module) checkSubscription(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Missing userId")
		return
	}

	p, err := m.store.Get(r.Context(), userID)
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		writeJSON(w, http.StatusOK, checkSubscriptionBody{})
		return
	case err != nil:
		m.log.ErrorContext(r.Context(), "check subscription failed", logger.UserID(userID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, checkSubscriptionBody{SubscriptionActive: p.Entitled()})
}

type subscriptionStatus struct {
	Tier   *string `json:"subscription_tier"`
	Active bool    `json:"subscription_active"`
}

type subscriptionStatusBody struct {
	Subscription subscriptionStatus `json:"subscription"`
}

func (m *module) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	p, err := m.store.Get(r.Context(), userID)
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		writeJSON(w, http.StatusOK, subscriptionStatusBody{})
		return
	case err != nil:
		m.log.ErrorContext(r.Context(), "subscription status failed", logger.UserID(userID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch subscription status.")
		return
	}

	status := subscriptionStatus{Active: p.SubscriptionActive}
	if p.SubscriptionTier != "" {
		tier := p.SubscriptionTier.String()
		status.Tier = &tier
	}
	writeJSON(w, http.StatusOK, subscriptionStatusBody{Subscription: status})
}
