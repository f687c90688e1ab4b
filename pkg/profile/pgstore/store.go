// Package pgstore implements profile.Store on PostgreSQL with pgx.
package pgstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/subsync/pkg/pg"
	"github.com/dmitrymomot/subsync/pkg/profile"
)

// DB is the subset of pgxpool.Pool used by the store. pgx.Tx satisfies it
// as well.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// Store is a PostgreSQL-backed profile.Store.
type Store struct {
	db DB
}

var _ profile.Store = (*Store)(nil)

// New wraps db. The profiles table must exist; see pg.Migrate and
// the migrations package.
func New(db DB) *Store {
	return &Store{db: db}
}

const selectProfile = `
SELECT user_id, email, subscription_active, COALESCE(subscription_tier, ''),
       COALESCE(external_subscription_id, ''), created_at, updated_at
FROM profiles
WHERE user_id = $1`

func (s *Store) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, profile.ErrMissingUserID
	}

	var (
		p    profile.Profile
		tier string
	)
	err := s.db.QueryRow(ctx, selectProfile, userID).Scan(
		&p.UserID, &p.Email, &p.SubscriptionActive, &tier,
		&p.ExternalSubscriptionID, &p.CreatedAt, &p.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, errors.Join(profile.ErrStoreUnavailable, err)
	}
	p.SubscriptionTier = profile.Tier(tier)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}

const upsertActive = `
INSERT INTO profiles (user_id, email, subscription_active, subscription_tier, external_subscription_id, created_at, updated_at)
VALUES ($1, $2, TRUE, $3, $4, $5, $5)
ON CONFLICT (user_id) DO UPDATE SET
    email = EXCLUDED.email,
    subscription_active = TRUE,
    subscription_tier = EXCLUDED.subscription_tier,
    external_subscription_id = EXCLUDED.external_subscription_id,
    updated_at = EXCLUDED.updated_at`

func (s *Store) UpsertActive(ctx context.Context, userID string, f profile.ActiveFields) error {
	if strings.TrimSpace(userID) == "" {
		return profile.ErrMissingUserID
	}
	if err := f.Validate(); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, upsertActive, userID, f.Email, string(f.Tier), f.SubscriptionID, time.Now().UTC())
	if err != nil {
		return errors.Join(profile.ErrStoreUnavailable, err)
	}
	return nil
}

const updateActive = `
UPDATE profiles
SET subscription_active = $2, updated_at = $3
WHERE user_id = $1`

func (s *Store) UpdateActiveIfExists(ctx context.Context, userID string, active bool) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, profile.ErrMissingUserID
	}

	tag, err := s.db.Exec(ctx, updateActive, userID, active, time.Now().UTC())
	if err != nil {
		return 0, errors.Join(profile.ErrStoreUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
