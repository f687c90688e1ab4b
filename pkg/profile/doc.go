// Package profile defines the local entitlement record and the storage
// contract every backend implements.
//
// A Profile is keyed by the externally issued user ID. It is created by the
// first completed purchase and afterwards only updated: billing events that
// arrive for an unknown user never create a row.
//
// # Store contract
//
//   - Get returns ErrProfileNotFound when no profile exists.
//   - UpsertActive is a single create-or-replace keyed by user ID. It writes
//     email, tier and external subscription ID together and sets the active
//     flag, so tier and subscription ID are either both set or both unset.
//   - UpdateActiveIfExists flips the active flag and reports how many rows it
//     touched. It must not create a profile.
//
// Writes are last-write-wins; no event ordering metadata is stored.
//
// # Backends
//
// MemoryStore lives in this package. Durable backends live in subpackages:
// pgstore (PostgreSQL), mongostore (MongoDB) and sqlitestore (SQLite).
// Transport failures from durable backends are wrapped with
// ErrStoreUnavailable:
//
//	p, err := store.Get(ctx, userID)
//	switch {
//	case errors.Is(err, profile.ErrProfileNotFound):
//		// never purchased
//	case errors.Is(err, profile.ErrStoreUnavailable):
//		// retry later
//	}
package profile
