// Package paddle adapts Paddle Billing to the billing.Provider contract.
//
// Notifications are verified with the SDK's WebhookVerifier plus a
// timestamp age check, then mapped as follows:
//
//   - transaction.completed from a renewal (origin subscription_recurring)
//     → billing.InvoicePaid
//   - any other transaction.completed → billing.PurchaseCompleted
//   - subscription.canceled → billing.SubscriptionCanceled
//   - other subscription.* lifecycle events → billing.SubscriptionStatusChanged
//
// Correlation keys travel in custom_data, which Paddle copies from the
// checkout transaction onto the subscription.
package paddle
