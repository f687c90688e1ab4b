// Package sqlitestore implements profile.Store on SQLite using the pure-Go
// modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/subsync/pkg/profile"
	"github.com/dmitrymomot/subsync/pkg/profile/sqlitestore/migrations"
)

// Config holds SQLite settings.
type Config struct {
	Path string `env:"SQLITE_PATH" envDefault:"subsync.db"` // Path is the database file.
}

// Store is a SQLite-backed profile.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ profile.Store = (*Store)(nil)

// Open opens (or creates) the database at path, applies the embedded
// migrations and returns a ready store. The caller owns Close.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(profile.ErrStoreUnavailable, err)
	}
	// SQLite allows a single writer; serialise through one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(profile.ErrStoreUnavailable, err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("sqlite migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("sqlite migrations: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Healthcheck pings the database.
func (s *Store) Healthcheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, profile.ErrMissingUserID
	}

	var (
		p                profile.Profile
		tier, subID      sql.NullString
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, subscription_active, subscription_tier,
		       external_subscription_id, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Email, &p.SubscriptionActive, &tier, &subID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, errors.Join(profile.ErrStoreUnavailable, err)
	}

	p.SubscriptionTier = profile.Tier(tier.String)
	p.ExternalSubscriptionID = subID.String
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("profiles.created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("profiles.updated_at: %w", err)
	}

	return &p, nil
}

func (s *Store) UpsertActive(ctx context.Context, userID string, f profile.ActiveFields) error {
	if strings.TrimSpace(userID) == "" {
		return profile.ErrMissingUserID
	}
	if err := f.Validate(); err != nil {
		return err
	}

	now := s.now().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, email, subscription_active, subscription_tier, external_subscription_id, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			email = excluded.email,
			subscription_active = 1,
			subscription_tier = excluded.subscription_tier,
			external_subscription_id = excluded.external_subscription_id,
			updated_at = excluded.updated_at`,
		userID, f.Email, string(f.Tier), f.SubscriptionID, now, now,
	)
	if err != nil {
		return errors.Join(profile.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) UpdateActiveIfExists(ctx context.Context, userID string, active bool) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, profile.ErrMissingUserID
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET subscription_active = ?, updated_at = ? WHERE user_id = ?`,
		active, s.now().Format(time.RFC3339Nano), userID,
	)
	if err != nil {
		return 0, errors.Join(profile.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Join(profile.ErrStoreUnavailable, err)
	}
	return n, nil
}
