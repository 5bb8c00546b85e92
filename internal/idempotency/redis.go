// ABOUTME: Redis idempotency store for deployments with several gateway instances
// ABOUTME: Claims keys with SET NX so the first writer wins across processes

package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// claimAttempts bounds retries when the winning record expires between SET NX and GET.
const claimAttempts = 3

// RedisStore keeps each record as a JSON string under prefix+key.
type RedisStore struct {
	client *backend.Client
	prefix string
}

type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix for records.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore connects to a redis server.
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(rdb, opts...)
}

// NewRedisStoreFromClient creates a store from an existing client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "toolgate:idem:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Claim implements Store. Redis expires the key itself, so a live key always
// means a live record.
func (s *RedisStore) Claim(ctx context.Context, rec Record) (*Record, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	var ttl time.Duration
	if !rec.ExpiresAt.IsZero() {
		ttl = rec.ExpiresAt.Sub(rec.CreatedAt)
		if ttl <= 0 {
			return nil, fmt.Errorf("record for %q expires before it is created", rec.Key)
		}
	}

	for range claimAttempts {
		ok, err := s.client.SetNX(ctx, s.prefix+rec.Key, value, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error claiming key: %w", err)
		}
		if ok {
			return nil, nil
		}

		existing, err := s.Get(ctx, rec.Key)
		if errors.Is(err, ErrNotFound) {
			// Expired between SET NX and GET, try again
			continue
		}
		if err != nil {
			return nil, err
		}
		return existing, nil
	}
	return nil, fmt.Errorf("redis claim for %q did not settle after %d attempts", rec.Key, claimAttempts)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, backend.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error getting key: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return &rec, nil
}

// List implements Lister by scanning the key prefix, newest first.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}

	var out []*Record
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		val, err := s.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, backend.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis error listing keys: %w", err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis error scanning keys: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
