// ABOUTME: Tests for the redis idempotency store against miniredis
// ABOUTME: Runs the shared contract plus TTL and prefix behaviour

package idempotency_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/toolgate/internal/idempotency"
	"github.com/2389/toolgate/internal/idempotency/idempotencytest"
)

func newRedisStore(t *testing.T) (*idempotency.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := idempotency.NewRedisStoreFromClient(client, idempotency.WithRedisPrefix("test:idem:"))
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newRedisStore(t)
	idempotencytest.RunStoreContract(t, store)
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Claim(ctx, idempotency.Record{Key: "k", PayloadHash: "old", CreatedAt: now, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:idem:k"))
	assert.Equal(t, time.Minute, mr.TTL("test:idem:k"))

	mr.FastForward(2 * time.Minute)

	existing, err := store.Claim(ctx, idempotency.Record{Key: "k", PayloadHash: "new", CreatedAt: now, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestRedisStore_List(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Claim(ctx, idempotency.Record{Key: "a", PayloadHash: "h", CreatedAt: now})
	require.NoError(t, err)
	_, err = store.Claim(ctx, idempotency.Record{Key: "b", PayloadHash: "h", CreatedAt: now.Add(time.Second)})
	require.NoError(t, err)

	recs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].Key)
}
