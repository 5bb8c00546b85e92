// ABOUTME: Tests for the in-memory idempotency store
// ABOUTME: Runs the shared contract plus expiry, capacity, listing and cleanup

package idempotency_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/toolgate/internal/idempotency"
	"github.com/2389/toolgate/internal/idempotency/idempotencytest"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := idempotency.NewMemoryStore(0)
	defer store.Close()

	idempotencytest.RunStoreContract(t, store)
}

func TestMemoryStore_FullRejectsNewKeys(t *testing.T) {
	store := idempotency.NewMemoryStore(2)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	for _, key := range []string{"k1", "k2"} {
		_, err := store.Claim(ctx, idempotency.Record{Key: key, PayloadHash: "h", CreatedAt: now})
		require.NoError(t, err)
	}

	_, err := store.Claim(ctx, idempotency.Record{Key: "k3", PayloadHash: "h", CreatedAt: now})
	assert.ErrorIs(t, err, idempotency.ErrStoreFull)
	assert.Equal(t, 2, store.Len())

	// Existing keys still answer with their record.
	existing, err := store.Claim(ctx, idempotency.Record{Key: "k1", PayloadHash: "h", CreatedAt: now})
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "k1", existing.Key)
}

func TestMemoryStore_FullReclaimsExpiredSlots(t *testing.T) {
	store := idempotency.NewMemoryStore(1)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	_, err := store.Claim(ctx, idempotency.Record{Key: "old", PayloadHash: "h", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	existing, err := store.Claim(ctx, idempotency.Record{Key: "new", PayloadHash: "h", CreatedAt: now})
	require.NoError(t, err)
	assert.Nil(t, existing)
	assert.Equal(t, 1, store.Len())
}

func TestGuard_MemoryStoreNeverForgetsLiveKeys(t *testing.T) {
	store := idempotency.NewMemoryStore(2)
	defer store.Close()
	guard := idempotency.NewGuard(store, 0)
	ctx := context.Background()

	for _, key := range []string{"K1", "K2"} {
		dup, err := guard.EnsureOnce(ctx, key, "payload-"+key)
		require.NoError(t, err)
		require.False(t, dup)
	}

	_, err := guard.EnsureOnce(ctx, "K3", "payload-K3")
	require.ErrorIs(t, err, idempotency.ErrStoreFull)

	dup, err := guard.EnsureOnce(ctx, "K1", "payload-K1")
	require.NoError(t, err)
	assert.True(t, dup, "retry of a claimed key must stay a duplicate")

	_, err = guard.EnsureOnce(ctx, "K2", "DIFFERENT")
	assert.ErrorIs(t, err, idempotency.ErrConflict)
}

func TestGuard_UnboundedMemoryStoreKeepsEveryKey(t *testing.T) {
	store := idempotency.NewMemoryStore(0)
	defer store.Close()
	guard := idempotency.NewGuard(store, 0)
	ctx := context.Background()

	for i := range 1000 {
		_, err := guard.EnsureOnce(ctx, fmt.Sprintf("k%d", i), "h")
		require.NoError(t, err)
	}

	dup, err := guard.EnsureOnce(ctx, "k0", "h")
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, 1000, store.Len())
}

func TestMemoryStore_ExpiredRecordReclaimed(t *testing.T) {
	store := idempotency.NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()
	now := time.Now()

	_, err := store.Claim(ctx, idempotency.Record{Key: "k", PayloadHash: "old", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, idempotency.ErrNotFound)

	existing, err := store.Claim(ctx, idempotency.Record{Key: "k", PayloadHash: "new", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Nil(t, existing)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PayloadHash)
}

func TestMemoryStore_List(t *testing.T) {
	store := idempotency.NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()
	base := time.Now()

	for i := range 3 {
		_, err := store.Claim(ctx, idempotency.Record{Key: fmt.Sprintf("k%d", i), PayloadHash: "h", CreatedAt: base.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	recs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "k2", recs[0].Key)
	assert.Equal(t, "k1", recs[1].Key)
}

func TestMemoryStore_CloseIdempotent(t *testing.T) {
	store := idempotency.NewMemoryStore(10)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
