// Package stripe adapts Stripe to the billing.Provider contract.
//
// Webhooks are verified with stripe-go's webhook package and decoded from
// the raw event data into minimal local structs:
//
//   - checkout.session.completed    → billing.PurchaseCompleted
//   - invoice.paid                  → billing.InvoicePaid
//   - customer.subscription.updated → billing.SubscriptionStatusChanged
//   - customer.subscription.deleted → billing.SubscriptionCanceled
//
// Every other type decodes to billing.Ignored. API calls use per-provider
// clients bound to the configured secret key; tests replace them through
// WithSessionCreator and WithSubscriptionGetter.
package stripe
