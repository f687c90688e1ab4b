// Package storetest holds the behavioural suite every profile.Store backend
// must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/profile"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) profile.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("get missing profile", func(t *testing.T) {
		store := newStore(t)

		p, err := store.Get(context.Background(), "user_missing")
		assert.ErrorIs(t, err, profile.ErrProfileNotFound)
		assert.Nil(t, p)
	})

	t.Run("empty user id is rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Get(ctx, "")
		assert.ErrorIs(t, err, profile.ErrMissingUserID)

		err = store.UpsertActive(ctx, " ", activeFields(profile.TierMonth))
		assert.ErrorIs(t, err, profile.ErrMissingUserID)

		_, err = store.UpdateActiveIfExists(ctx, "", true)
		assert.ErrorIs(t, err, profile.ErrMissingUserID)
	})

	t.Run("upsert creates active profile", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.UpsertActive(ctx, "user_1", activeFields(profile.TierMonth)))

		p, err := store.Get(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, "user_1", p.UserID)
		assert.Equal(t, "user_1@example.com", p.Email)
		assert.True(t, p.SubscriptionActive)
		assert.Equal(t, profile.TierMonth, p.SubscriptionTier)
		assert.Equal(t, "sub_user_1", p.ExternalSubscriptionID)
		assert.False(t, p.CreatedAt.IsZero())
		assert.False(t, p.UpdatedAt.IsZero())
	})

	t.Run("upsert replaces fields and reactivates", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.UpsertActive(ctx, "user_1", activeFields(profile.TierWeek)))
		n, err := store.UpdateActiveIfExists(ctx, "user_1", false)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		require.NoError(t, store.UpsertActive(ctx, "user_1", profile.ActiveFields{
			Email:          "new@example.com",
			Tier:           profile.TierYear,
			SubscriptionID: "sub_new",
		}))

		p, err := store.Get(ctx, "user_1")
		require.NoError(t, err)
		assert.True(t, p.SubscriptionActive)
		assert.Equal(t, "new@example.com", p.Email)
		assert.Equal(t, profile.TierYear, p.SubscriptionTier)
		assert.Equal(t, "sub_new", p.ExternalSubscriptionID)
	})

	t.Run("upsert is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.UpsertActive(ctx, "user_1", activeFields(profile.TierMonth)))
		first, err := store.Get(ctx, "user_1")
		require.NoError(t, err)

		require.NoError(t, store.UpsertActive(ctx, "user_1", activeFields(profile.TierMonth)))
		second, err := store.Get(ctx, "user_1")
		require.NoError(t, err)

		assert.Equal(t, first.Email, second.Email)
		assert.Equal(t, first.SubscriptionActive, second.SubscriptionActive)
		assert.Equal(t, first.SubscriptionTier, second.SubscriptionTier)
		assert.Equal(t, first.ExternalSubscriptionID, second.ExternalSubscriptionID)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "created_at must survive upserts")
	})

	t.Run("upsert rejects incomplete fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		err := store.UpsertActive(ctx, "user_1", profile.ActiveFields{Tier: "basic", SubscriptionID: "sub_1"})
		assert.ErrorIs(t, err, profile.ErrUnknownTier)

		err = store.UpsertActive(ctx, "user_1", profile.ActiveFields{Tier: profile.TierWeek})
		assert.ErrorIs(t, err, profile.ErrMissingSubscriptionID)

		_, err = store.Get(ctx, "user_1")
		assert.ErrorIs(t, err, profile.ErrProfileNotFound)
	})

	t.Run("update never creates", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		n, err := store.UpdateActiveIfExists(ctx, "user_ghost", true)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = store.Get(ctx, "user_ghost")
		assert.ErrorIs(t, err, profile.ErrProfileNotFound)
	})

	t.Run("update retains tier and subscription id", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.UpsertActive(ctx, "user_1", activeFields(profile.TierMonth)))

		n, err := store.UpdateActiveIfExists(ctx, "user_1", false)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		p, err := store.Get(ctx, "user_1")
		require.NoError(t, err)
		assert.False(t, p.SubscriptionActive)
		assert.Equal(t, profile.TierMonth, p.SubscriptionTier)
		assert.Equal(t, "sub_user_1", p.ExternalSubscriptionID)
	})

	t.Run("concurrent upserts keep a single profile", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for i := range 16 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- store.UpsertActive(ctx, "user_race", profile.ActiveFields{
					Email:          fmt.Sprintf("race%d@example.com", i),
					Tier:           profile.TierWeek,
					SubscriptionID: "sub_race",
				})
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		p, err := store.Get(ctx, "user_race")
		require.NoError(t, err)
		assert.True(t, p.SubscriptionActive)
		assert.Equal(t, "sub_race", p.ExternalSubscriptionID)
	})
}

func activeFields(tier profile.Tier) profile.ActiveFields {
	return profile.ActiveFields{
		Email:          "user_1@example.com",
		Tier:           tier,
		SubscriptionID: "sub_user_1",
	}
}
