// ABOUTME: Process-local idempotency store with TTL expiry and an optional capacity
// ABOUTME: Used in mock mode and single-instance deployments

package idempotency

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in a map guarded by a single mutex, so Claim is
// atomic for every key. Live records are never dropped: once maxEntries live
// records exist, claims for new keys fail with ErrStoreFull.
type MemoryStore struct {
	mu         sync.Mutex
	records    map[string]Record
	maxEntries int
	now        func() time.Time
	done       chan struct{}
	closed     bool
}

// NewMemoryStore creates a memory store. maxEntries <= 0 means unbounded.
// A background goroutine periodically removes expired records.
func NewMemoryStore(maxEntries int) *MemoryStore {
	s := &MemoryStore{
		records:    make(map[string]Record),
		maxEntries: maxEntries,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Claim implements Store.
func (s *MemoryStore) Claim(_ context.Context, rec Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.Key]; ok {
		if !existing.Expired(rec.CreatedAt) {
			return &existing, nil
		}
		// Expired, reclaim it
		delete(s.records, rec.Key)
	}

	if s.maxEntries > 0 && len(s.records) >= s.maxEntries {
		s.removeExpired(rec.CreatedAt)
		if len(s.records) >= s.maxEntries {
			return nil, ErrStoreFull
		}
	}

	s.records[rec.Key] = rec
	return nil, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// List implements Lister, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Expired(now) {
			continue
		}
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored records, live or not yet cleaned up.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// cleanup runs in a background goroutine, periodically removing expired records.
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCleanup()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) runCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeExpired(s.now())
}

// removeExpired drops records that are no longer live. Must be called with mu held.
func (s *MemoryStore) removeExpired(now time.Time) {
	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.done)
		s.closed = true
	}
	return nil
}
