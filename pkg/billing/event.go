package billing

import "time"

// Kind identifies the reconciliation-relevant category of a billing event.
type Kind string

const (
	KindPurchaseCompleted         Kind = "purchase_completed"
	KindInvoicePaid               Kind = "invoice_paid"
	KindSubscriptionStatusChanged Kind = "subscription_status_changed"
	KindSubscriptionCanceled      Kind = "subscription_canceled"
	KindIgnored                   Kind = "ignored"
)

// Event is a verified, provider-neutral billing event. The set of
// implementations is closed: PurchaseCompleted, InvoicePaid,
// SubscriptionStatusChanged, SubscriptionCanceled and Ignored.
type Event interface {
	Kind() Kind
	Meta() EventMeta
	isEvent()
}

// EventMeta carries delivery details common to every event.
type EventMeta struct {
	Provider   string    // provider name, e.g. "stripe"
	ID         string    // provider event id, used for logging only
	Type       string    // provider event type, e.g. "invoice.paid"
	OccurredAt time.Time // provider timestamp; informational
}

func (m EventMeta) Meta() EventMeta { return m }
func (EventMeta) isEvent()          {}

// PurchaseCompleted reports a completed checkout. It is the only event
// allowed to create a profile.
type PurchaseCompleted struct {
	EventMeta
	Correlation    Correlation
	Email          string
	SubscriptionID string
}

func (PurchaseCompleted) Kind() Kind { return KindPurchaseCompleted }

// InvoicePaid reports a successful renewal payment. It carries no
// correlation metadata; the subscription must be looked up.
type InvoicePaid struct {
	EventMeta
	SubscriptionID string
}

func (InvoicePaid) Kind() Kind { return KindInvoicePaid }

// SubscriptionStatusChanged reports a subscription moving to Status.
type SubscriptionStatusChanged struct {
	EventMeta
	Correlation    Correlation
	SubscriptionID string
	Status         string
}

func (SubscriptionStatusChanged) Kind() Kind { return KindSubscriptionStatusChanged }

// Entitled reports whether Status grants access.
func (e SubscriptionStatusChanged) Entitled() bool { return IsEntitledStatus(e.Status) }

// SubscriptionCanceled reports a subscription that has ended.
type SubscriptionCanceled struct {
	EventMeta
	Correlation    Correlation
	SubscriptionID string
}

func (SubscriptionCanceled) Kind() Kind { return KindSubscriptionCanceled }

// Ignored is a verified event of a type the engine does not act on.
type Ignored struct {
	EventMeta
}

func (Ignored) Kind() Kind { return KindIgnored }

var (
	_ Event = PurchaseCompleted{}
	_ Event = InvoicePaid{}
	_ Event = SubscriptionStatusChanged{}
	_ Event = SubscriptionCanceled{}
	_ Event = Ignored{}
)
