// ABOUTME: Idempotency store delegated to a backend database procedure
// ABOUTME: The procedure performs the insert-or-get under a unique constraint

package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2389/toolgate/internal/rpc"
)

// DefaultLookupRPC is the procedure used by RPCStore.Get.
const DefaultLookupRPC = "get_idempotency_key"

// RPCStore calls backend procedures for every operation. The claim procedure
// must insert the key or return the existing row in one statement.
type RPCStore struct {
	backend   rpc.Backend
	claimRPC  string
	lookupRPC string
}

// NewRPCStore creates a store backed by the named claim procedure.
func NewRPCStore(backend rpc.Backend, claimRPC string) *RPCStore {
	return &RPCStore{backend: backend, claimRPC: claimRPC, lookupRPC: DefaultLookupRPC}
}

type claimParams struct {
	Key         string `json:"p_key"`
	PayloadHash string `json:"p_payload_hash"`
	TTLSeconds  int64  `json:"p_ttl_seconds"`
}

type rpcRow struct {
	Created     bool       `json:"created"`
	Key         string     `json:"key"`
	PayloadHash string     `json:"payload_hash"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Claim implements Store.
func (s *RPCStore) Claim(ctx context.Context, rec Record) (*Record, error) {
	params := claimParams{Key: rec.Key, PayloadHash: rec.PayloadHash}
	if !rec.ExpiresAt.IsZero() {
		params.TTLSeconds = int64(rec.ExpiresAt.Sub(rec.CreatedAt) / time.Second)
	}

	var raw json.RawMessage
	if err := s.backend.CallRPC(ctx, s.claimRPC, params, &raw); err != nil {
		return nil, fmt.Errorf("rpc %s: %w", s.claimRPC, err)
	}
	row, err := decodeRow(raw)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", s.claimRPC, err)
	}
	if row == nil {
		return nil, fmt.Errorf("rpc %s returned no row", s.claimRPC)
	}
	if row.Created {
		return nil, nil
	}
	return row.record(rec.Key), nil
}

// Get implements Store.
func (s *RPCStore) Get(ctx context.Context, key string) (*Record, error) {
	var raw json.RawMessage
	if err := s.backend.CallRPC(ctx, s.lookupRPC, map[string]string{"p_key": key}, &raw); err != nil {
		return nil, fmt.Errorf("rpc %s: %w", s.lookupRPC, err)
	}
	row, err := decodeRow(raw)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", s.lookupRPC, err)
	}
	if row == nil || row.PayloadHash == "" {
		return nil, ErrNotFound
	}
	rec := row.record(key)
	if rec.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Close is a no-op; the backend client holds no per-store resources.
func (s *RPCStore) Close() error { return nil }

func (r *rpcRow) record(key string) *Record {
	rec := &Record{Key: r.Key, PayloadHash: r.PayloadHash, CreatedAt: r.CreatedAt.UTC()}
	if rec.Key == "" {
		rec.Key = key
	}
	if r.ExpiresAt != nil {
		rec.ExpiresAt = r.ExpiresAt.UTC()
	}
	return rec
}

// decodeRow accepts a single object, a one-element array (set-returning
// procedures) or null.
func decodeRow(raw json.RawMessage) (*rpcRow, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var rows []rpcRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decoding rows: %w", err)
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return &rows[0], nil
	}
	var row rpcRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decoding row: %w", err)
	}
	return &row, nil
}
