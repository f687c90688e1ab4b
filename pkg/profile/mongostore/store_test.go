package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/mongo"
	"github.com/dmitrymomot/subsync/pkg/profile"
	"github.com/dmitrymomot/subsync/pkg/profile/mongostore"
	"github.com/dmitrymomot/subsync/pkg/profile/storetest"
)

// Runs against a real deployment when MONGODB_TEST_URL is set, e.g.
// mongodb://localhost:27017
func TestStore(t *testing.T) {
	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		t.Skip("MONGODB_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := mongo.NewWithDatabase(ctx, mongo.Config{
		ConnectionURL:  url,
		Database:       "subsync_test",
		ConnectTimeout: 5 * time.Second,
		MaxPoolSize:    20,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })

	storetest.Run(t, func(t *testing.T) profile.Store {
		name := "profiles_" + uuid.NewString()
		store := mongostore.New(db, name)
		require.NoError(t, store.EnsureIndexes(ctx))
		t.Cleanup(func() { _ = db.Collection(name).Drop(context.Background()) })
		return store
	})
}
