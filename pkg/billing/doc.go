// Package billing defines the provider-neutral contract between billing
// providers and the reconciliation engine.
//
// A Provider verifies webhook deliveries and decodes them into one of a
// closed set of Event variants, looks up subscription metadata, and opens
// checkout sessions. Correlation between provider objects and local users
// rides on two metadata keys, MetadataUserID and MetadataPlan, written at
// checkout onto both the session and the subscription it creates.
//
// Provider implementations live in the stripe and paddle subpackages.
package billing
