package profile

import "context"

// Store persists profiles keyed by user ID.
//
// Every write is a single atomic operation on one key. Implementations must
// never emulate UpsertActive or UpdateActiveIfExists with a separate read
// followed by a write. Writes are last-write-wins.
type Store interface {
	// Get returns the profile for userID or ErrProfileNotFound.
	Get(ctx context.Context, userID string) (*Profile, error)

	// UpsertActive creates or replaces the purchase fields of a profile and
	// marks it active.
	UpsertActive(ctx context.Context, userID string, f ActiveFields) error

	// UpdateActiveIfExists sets the active flag of an existing profile and
	// returns the number of updated profiles (0 or 1). It never creates one.
	UpdateActiveIfExists(ctx context.Context, userID string, active bool) (int64, error)
}
