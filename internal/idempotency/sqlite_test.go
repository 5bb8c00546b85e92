// ABOUTME: Tests for the SQLite idempotency store
// ABOUTME: Runs the shared contract against a temp-dir database plus expiry and purge

package idempotency_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/toolgate/internal/idempotency"
	"github.com/2389/toolgate/internal/idempotency/idempotencytest"
	"github.com/2389/toolgate/internal/logging"
)

func newSQLiteStore(t *testing.T) *idempotency.SQLiteStore {
	t.Helper()
	store, err := idempotency.NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "idem.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	idempotencytest.RunStoreContract(t, newSQLiteStore(t))
}

func TestSQLiteStore_ExpiredRowIsReplaced(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Claim(ctx, idempotency.Record{Key: "k", PayloadHash: "old", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	existing, err := store.Claim(ctx, idempotency.Record{Key: "k", PayloadHash: "new", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Nil(t, existing)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PayloadHash)
}

func TestSQLiteStore_ListAndPurge(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Claim(ctx, idempotency.Record{Key: "live-1", PayloadHash: "h", CreatedAt: now.Add(-time.Second), ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	_, err = store.Claim(ctx, idempotency.Record{Key: "live-2", PayloadHash: "h", CreatedAt: now})
	require.NoError(t, err)
	_, err = store.Claim(ctx, idempotency.Record{Key: "dead", PayloadHash: "h", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	recs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "live-2", recs[0].Key)
	assert.Equal(t, "live-1", recs[1].Key)

	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idem.db")
	ctx := context.Background()

	store, err := idempotency.NewSQLiteStore(path, logging.NewNop())
	require.NoError(t, err)
	_, err = store.Claim(ctx, idempotency.Record{Key: "k", PayloadHash: "h", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := idempotency.NewSQLiteStore(path, logging.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "h", got.PayloadHash)
}
