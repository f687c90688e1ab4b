// Package billing is the HTTP surface of the subscription engine: provider
// webhooks, entitlement queries and checkout.
//
// Response bodies keep the shapes existing clients depend on, e.g.
// {"received":true} for webhooks and {"subscriptionActive":bool} for the
// entitlement query.
package billing
