package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/dmitrymomot/subsync/pkg/billing"
)

// Stripe event types the engine acts on.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventInvoicePaid              = "invoice.paid"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
)

// VerifyEvent checks the Stripe-Signature header against the raw payload
// and decodes the event into a billing.Event.
func (p *Provider) VerifyEvent(_ context.Context, payload []byte, signatureHeader string) (billing.Event, error) {
	if p.webhookSecret == "" {
		return nil, billing.ErrMissingSecret
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                p.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, errors.Join(billing.ErrInvalidSignature, err)
		}
		return nil, errors.Join(billing.ErrMalformedEvent, err)
	}

	return decodeEvent(&event)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// Minimal views of the Stripe objects; only the fields reconciliation needs.

type checkoutSession struct {
	ID              string            `json:"id"`
	Mode            string            `json:"mode"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerDetails *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Subscription json.RawMessage   `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type invoice struct {
	ID           string          `json:"id"`
	Subscription json.RawMessage `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription json.RawMessage `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

type subscriptionObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

func decodeEvent(event *stripelib.Event) (billing.Event, error) {
	meta := billing.EventMeta{
		Provider: Name,
		ID:       event.ID,
		Type:     string(event.Type),
	}
	if event.Created > 0 {
		meta.OccurredAt = time.Unix(event.Created, 0).UTC()
	}
	if event.Data == nil {
		return nil, errors.Join(billing.ErrMalformedEvent, fmt.Errorf("event %s has no data", event.ID))
	}
	raw := event.Data.Raw

	switch meta.Type {
	case EventCheckoutSessionCompleted:
		var s checkoutSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Join(billing.ErrMalformedEvent, fmt.Errorf("decode checkout.session: %w", err))
		}
		email := strings.TrimSpace(s.CustomerEmail)
		if email == "" && s.CustomerDetails != nil {
			email = strings.TrimSpace(s.CustomerDetails.Email)
		}
		return billing.PurchaseCompleted{
			EventMeta:      meta,
			Correlation:    billing.CorrelationFromMetadata(s.Metadata),
			Email:          email,
			SubscriptionID: expandableID(s.Subscription),
		}, nil

	case EventInvoicePaid:
		var inv invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, errors.Join(billing.ErrMalformedEvent, fmt.Errorf("decode invoice: %w", err))
		}
		subID := expandableID(inv.Subscription)
		if subID == "" && inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
			subID = expandableID(inv.Parent.SubscriptionDetails.Subscription)
		}
		return billing.InvoicePaid{EventMeta: meta, SubscriptionID: subID}, nil

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub subscriptionObject
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, errors.Join(billing.ErrMalformedEvent, fmt.Errorf("decode subscription: %w", err))
		}
		corr := billing.CorrelationFromMetadata(sub.Metadata)
		if meta.Type == EventSubscriptionDeleted {
			return billing.SubscriptionCanceled{EventMeta: meta, Correlation: corr, SubscriptionID: sub.ID}, nil
		}
		return billing.SubscriptionStatusChanged{
			EventMeta:      meta,
			Correlation:    corr,
			SubscriptionID: sub.ID,
			Status:         sub.Status,
		}, nil

	default:
		return billing.Ignored{EventMeta: meta}, nil
	}
}

// expandableID reads a Stripe expandable field, which is either an id
// string or the expanded object.
func expandableID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return ""
		}
		return strings.TrimSpace(id)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return strings.TrimSpace(obj.ID)
}
