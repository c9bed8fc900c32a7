package kvstore

import (
	"context"
	"testing"

	"github.com/botbay/botbay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_RoundTrip(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)
	require.NoError(t, store.Migrate(ctx))

	err := store.Set(ctx, "botStats", []byte(`{"7":{"messages":4}}`))
	require.NoError(t, err)

	got, err := store.Get(ctx, "botStats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"7":{"messages":4}}`, string(got))

	// Upsert replaces
	err = store.Set(ctx, "botStats", []byte(`{"7":{"messages":5}}`))
	require.NoError(t, err)

	got, err = store.Get(ctx, "botStats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"7":{"messages":5}}`, string(got))
}

func TestPostgresStore_NotFoundAndDelete(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)
	require.NoError(t, store.Migrate(ctx))

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "k", []byte(`[]`)))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Idempotent delete
	assert.NoError(t, store.Delete(ctx, "k"))
}
