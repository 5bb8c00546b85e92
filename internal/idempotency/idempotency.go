// ABOUTME: Idempotency guard mapping a caller key to the payload it was first used with
// ABOUTME: Detects first use, duplicate retries and conflicting key reuse atomically

package idempotency

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConflict means a key was reused with a different payload.
	ErrConflict = errors.New("idempotency key was already used with a different payload")
	// ErrNotFound means no live record exists for a key.
	ErrNotFound = errors.New("idempotency record not found")
	// ErrStoreFull means the store holds its maximum number of live records.
	ErrStoreFull = errors.New("idempotency store is full")
)

// Record associates an idempotency key with the payload hash it was claimed for.
type Record struct {
	Key         string    `json:"key"`
	PayloadHash string    `json:"payloadHash"`
	CreatedAt   time.Time `json:"createdAt"`
	// ExpiresAt is zero when the record never expires.
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the record is no longer live at now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store persists records. Claim must be atomic: when several callers claim the
// same key concurrently exactly one of them gets a nil existing record.
type Store interface {
	// Claim stores rec unless a live record for rec.Key exists, in which case
	// that record is returned and nothing is written.
	Claim(ctx context.Context, rec Record) (existing *Record, err error)
	// Get returns the live record for key or ErrNotFound.
	Get(ctx context.Context, key string) (*Record, error)
	Close() error
}

// Lister is implemented by stores that can enumerate recent records.
type Lister interface {
	List(ctx context.Context, limit int) ([]*Record, error)
}

// Guard enforces at-most-once semantics per idempotency key.
type Guard struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewGuard creates a guard over store. A ttl of zero keeps records forever.
func NewGuard(store Store, ttl time.Duration) *Guard {
	return &Guard{store: store, ttl: ttl, now: time.Now}
}

// WithClock replaces the guard's clock.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Store returns the backing store.
func (g *Guard) Store() Store { return g.store }

// EnsureOnce claims key for payloadHash. It returns false on first use and
// true when the key was already claimed with the same hash. Reusing a key with
// a different hash fails with ErrConflict.
func (g *Guard) EnsureOnce(ctx context.Context, key, payloadHash string) (wasDuplicate bool, err error) {
	now := g.now().UTC()
	rec := Record{Key: key, PayloadHash: payloadHash, CreatedAt: now}
	if g.ttl > 0 {
		rec.ExpiresAt = now.Add(g.ttl)
	}

	existing, err := g.store.Claim(ctx, rec)
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if existing == nil {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(existing.PayloadHash), []byte(payloadHash)) != 1 {
		return false, fmt.Errorf("%w (key %q)", ErrConflict, key)
	}
	return true, nil
}

// Lookup returns the live record for key.
func (g *Guard) Lookup(ctx context.Context, key string) (*Record, error) {
	return g.store.Get(ctx, key)
}
