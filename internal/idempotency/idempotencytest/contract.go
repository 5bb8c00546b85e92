// ABOUTME: Shared behaviour suite every idempotency store must pass
// ABOUTME: Covers first use, duplicates, lookups and concurrent claims of one key

package idempotencytest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/toolgate/internal/idempotency"
)

// RunStoreContract exercises store against the Store contract. Keys are
// prefixed with the test name so a shared backend can be reused.
func RunStoreContract(t *testing.T, store idempotency.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	prefix := fmt.Sprintf("contract-%d-", now.UnixNano())

	t.Run("Claim new key", func(t *testing.T) {
		rec := idempotency.Record{Key: prefix + "new", PayloadHash: "h1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
		existing, err := store.Claim(ctx, rec)
		require.NoError(t, err)
		assert.Nil(t, existing, "first claim should win")

		got, err := store.Get(ctx, rec.Key)
		require.NoError(t, err)
		assert.Equal(t, "h1", got.PayloadHash)
		assert.Equal(t, rec.Key, got.Key)
	})

	t.Run("Claim existing key returns stored record", func(t *testing.T) {
		key := prefix + "existing"
		_, err := store.Claim(ctx, idempotency.Record{Key: key, PayloadHash: "first", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
		require.NoError(t, err)

		existing, err := store.Claim(ctx, idempotency.Record{Key: key, PayloadHash: "second", CreatedAt: now.Add(time.Second), ExpiresAt: now.Add(time.Hour)})
		require.NoError(t, err)
		require.NotNil(t, existing)
		assert.Equal(t, "first", existing.PayloadHash, "stored hash must never be overwritten")

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "first", got.PayloadHash)
	})

	t.Run("Get missing key", func(t *testing.T) {
		_, err := store.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, idempotency.ErrNotFound)
	})

	t.Run("Record without expiry", func(t *testing.T) {
		key := prefix + "forever"
		existing, err := store.Claim(ctx, idempotency.Record{Key: key, PayloadHash: "h", CreatedAt: now})
		require.NoError(t, err)
		assert.Nil(t, existing)

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, got.ExpiresAt.IsZero())
	})

	t.Run("Concurrent claims of one key", func(t *testing.T) {
		key := prefix + "race"
		const workers = 32

		var (
			wg      sync.WaitGroup
			winners atomic.Int32
			errs    atomic.Int32
		)
		start := make(chan struct{})
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				existing, err := store.Claim(ctx, idempotency.Record{
					Key:         key,
					PayloadHash: "same",
					CreatedAt:   now,
					ExpiresAt:   now.Add(time.Hour),
				})
				if err != nil {
					errs.Add(1)
					return
				}
				if existing == nil {
					winners.Add(1)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		assert.Zero(t, errs.Load())
		assert.Equal(t, int32(1), winners.Load(), "exactly one concurrent claim may win")
	})

	t.Run("Distinct keys are independent", func(t *testing.T) {
		for i := range 5 {
			existing, err := store.Claim(ctx, idempotency.Record{
				Key:         fmt.Sprintf("%sdistinct-%d", prefix, i),
				PayloadHash: "h",
				CreatedAt:   now,
				ExpiresAt:   now.Add(time.Hour),
			})
			require.NoError(t, err)
			assert.Nil(t, existing)
		}
	})
}
