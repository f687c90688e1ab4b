// Package mongostore implements profile.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/subsync/pkg/profile"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "profiles"

// Store is a MongoDB-backed profile.Store. Documents are keyed by user ID
// in _id, so the primary key index enforces one profile per user.
type Store struct {
	col *mongo.Collection
	now func() time.Time
}

var _ profile.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a store over db.Collection(collection). An empty collection
// name selects DefaultCollection.
func New(db *mongo.Database, collection string, opts ...Option) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	s := &Store{
		col: db.Collection(collection),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the secondary indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "external_subscription_id", Value: 1}},
		Options: options.Index().SetName("external_subscription_id_idx").SetSparse(true),
	})
	if err != nil {
		return errors.Join(profile.ErrStoreUnavailable, err)
	}
	return nil
}

type document struct {
	UserID                 string    `bson:"_id"`
	Email                  string    `bson:"email"`
	SubscriptionActive     bool      `bson:"subscription_active"`
	SubscriptionTier       string    `bson:"subscription_tier,omitempty"`
	ExternalSubscriptionID string    `bson:"external_subscription_id,omitempty"`
	CreatedAt              time.Time `bson:"created_at"`
	UpdatedAt              time.Time `bson:"updated_at"`
}

func (d document) toProfile() *profile.Profile {
	return &profile.Profile{
		UserID:                 d.UserID,
		Email:                  d.Email,
		SubscriptionActive:     d.SubscriptionActive,
		SubscriptionTier:       profile.Tier(d.SubscriptionTier),
		ExternalSubscriptionID: d.ExternalSubscriptionID,
		CreatedAt:              d.CreatedAt.UTC(),
		UpdatedAt:              d.UpdatedAt.UTC(),
	}
}

func (s *Store) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, profile.ErrMissingUserID
	}

	var doc document
	err := s.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, profile.ErrProfileNotFound
	}
	if err != nil {
		return nil, errors.Join(profile.ErrStoreUnavailable, err)
	}
	return doc.toProfile(), nil
}

func (s *Store) UpsertActive(ctx context.Context, userID string, f profile.ActiveFields) error {
	if strings.TrimSpace(userID) == "" {
		return profile.ErrMissingUserID
	}
	if err := f.Validate(); err != nil {
		return err
	}

	now := s.now()
	update := bson.M{
		"$set": bson.M{
			"email":                    f.Email,
			"subscription_active":      true,
			"subscription_tier":        string(f.Tier),
			"external_subscription_id": f.SubscriptionID,
			"updated_at":               now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := s.col.UpdateOne(ctx, bson.M{"_id": userID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		// Two concurrent upserts on a new _id can race on insert; the
		// loser retries once as a plain update.
		if mongo.IsDuplicateKeyError(err) {
			_, err = s.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
		}
		if err != nil {
			return errors.Join(profile.ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (s *Store) UpdateActiveIfExists(ctx context.Context, userID string, active bool) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, profile.ErrMissingUserID
	}

	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"subscription_active": active, "updated_at": s.now()}},
	)
	if err != nil {
		return 0, errors.Join(profile.ErrStoreUnavailable, err)
	}
	return res.MatchedCount, nil
}
