// ABOUTME: Built-in resource providers for tool metadata and idempotency records
// ABOUTME: tools://<name> and idempotency://<key>

package resources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/2389/toolgate/internal/idempotency"
	"github.com/2389/toolgate/internal/tools"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ToolsProvider exposes registry definitions.
type ToolsProvider struct {
	registry *tools.Registry
}

// NewToolsProvider creates a provider over registry.
func NewToolsProvider(registry *tools.Registry) *ToolsProvider {
	return &ToolsProvider{registry: registry}
}

func (p *ToolsProvider) Get(_ context.Context, id string, _ url.Values) (any, error) {
	t, ok := p.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: tools/%s", ErrNotFound, id)
	}
	return t.Definition(), nil
}

func (p *ToolsProvider) List(context.Context, url.Values) ([]any, error) {
	defs := p.registry.List()
	out := make([]any, len(defs))
	for i, d := range defs {
		out[i] = d
	}
	return out, nil
}

// IdempotencyProvider exposes idempotency records.
type IdempotencyProvider struct {
	store idempotency.Store
}

// NewIdempotencyProvider creates a provider over store.
func NewIdempotencyProvider(store idempotency.Store) *IdempotencyProvider {
	return &IdempotencyProvider{store: store}
}

func (p *IdempotencyProvider) Get(ctx context.Context, id string, _ url.Values) (any, error) {
	rec, err := p.store.Get(ctx, id)
	if errors.Is(err, idempotency.ErrNotFound) {
		return nil, fmt.Errorf("%w: idempotency/%s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *IdempotencyProvider) List(ctx context.Context, query url.Values) ([]any, error) {
	lister, ok := p.store.(idempotency.Lister)
	if !ok {
		return nil, fmt.Errorf("%w: the configured idempotency store cannot list records", ErrListUnsupported)
	}

	limit := defaultListLimit
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, maxListLimit)
		}
		limit = n
	}

	recs, err := lister.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out, nil
}
