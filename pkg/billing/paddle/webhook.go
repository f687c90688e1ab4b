package paddle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/subsync/pkg/billing"
)

// Paddle event types the engine acts on.
const (
	EventTransactionCompleted  = "transaction.completed"
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionUpdated   = "subscription.updated"
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionTrialing  = "subscription.trialing"
	EventSubscriptionPastDue   = "subscription.past_due"
	EventSubscriptionPaused    = "subscription.paused"
	EventSubscriptionResumed   = "subscription.resumed"
	EventSubscriptionCanceled  = "subscription.canceled"
)

// originRecurring marks transactions created by a subscription renewal.
const originRecurring = "subscription_recurring"

// VerifyEvent checks the Paddle-Signature header ("ts=<unix>;h1=<hex>")
// against the raw payload and decodes the notification.
func (p *Provider) VerifyEvent(ctx context.Context, payload []byte, signatureHeader string) (billing.Event, error) {
	if p.verifier == nil {
		return nil, billing.ErrMissingSecret
	}

	if err := p.checkTimestamp(signatureHeader); err != nil {
		return nil, errors.Join(billing.ErrInvalidSignature, err)
	}

	// The SDK verifier works on a request; it rewinds the body after reading.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set(SignatureHeader, signatureHeader)

	ok, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(billing.ErrInvalidSignature, err)
	}
	if !ok {
		return nil, billing.ErrInvalidSignature
	}

	return decodeEvent(payload)
}

func (p *Provider) checkTimestamp(header string) error {
	var ts string
	for part := range strings.SplitSeq(header, ";") {
		if v, found := strings.CutPrefix(strings.TrimSpace(part), "ts="); found {
			ts = v
		}
	}
	if ts == "" {
		return errors.New("signature timestamp missing")
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("signature timestamp: %w", err)
	}
	if age := p.now().Sub(time.Unix(unix, 0)); age > p.tolerance || age < -p.tolerance {
		return fmt.Errorf("signature timestamp outside tolerance (%s)", age.Round(time.Second))
	}
	return nil
}

type notification struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type transactionData struct {
	ID             string         `json:"id"`
	Status         string         `json:"status"`
	Origin         string         `json:"origin"`
	SubscriptionID string         `json:"subscription_id"`
	CustomData     map[string]any `json:"custom_data"`
}

type subscriptionData struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	CustomData map[string]any `json:"custom_data"`
}

func decodeEvent(payload []byte) (billing.Event, error) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(billing.ErrMalformedEvent, err)
	}
	meta := billing.EventMeta{
		Provider:   Name,
		ID:         n.EventID,
		Type:       n.EventType,
		OccurredAt: n.OccurredAt.UTC(),
	}

	switch n.EventType {
	case EventTransactionCompleted:
		var tx transactionData
		if err := json.Unmarshal(n.Data, &tx); err != nil {
			return nil, errors.Join(billing.ErrMalformedEvent, fmt.Errorf("decode transaction: %w", err))
		}
		if tx.Origin == originRecurring {
			return billing.InvoicePaid{EventMeta: meta, SubscriptionID: tx.SubscriptionID}, nil
		}
		email, _ := tx.CustomData[MetadataEmail].(string)
		return billing.PurchaseCompleted{
			EventMeta:      meta,
			Correlation:    billing.CorrelationFromAny(tx.CustomData),
			Email:          strings.TrimSpace(email),
			SubscriptionID: tx.SubscriptionID,
		}, nil

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionActivated,
		EventSubscriptionTrialing, EventSubscriptionPastDue, EventSubscriptionPaused,
		EventSubscriptionResumed, EventSubscriptionCanceled:
		var sub subscriptionData
		if err := json.Unmarshal(n.Data, &sub); err != nil {
			return nil, errors.Join(billing.ErrMalformedEvent, fmt.Errorf("decode subscription: %w", err))
		}
		corr := billing.CorrelationFromAny(sub.CustomData)
		if n.EventType == EventSubscriptionCanceled {
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
