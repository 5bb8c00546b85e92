// ABOUTME: Correlation ids tie one request's logs, responses and downstream calls together
// ABOUTME: Ids come from the inbound X-Correlation-Id header or are generated as UUIDs

package correlation

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Header is the HTTP header carrying the correlation id in both directions.
const Header = "X-Correlation-Id"

// maxLength bounds caller-supplied ids so they cannot bloat logs.
const maxLength = 128

type contextKey struct{}

// New generates a fresh correlation id.
func New() string {
	return uuid.New().String()
}

// FromHeader returns the inbound id if it is usable, otherwise a new one.
func FromHeader(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxLength || strings.ContainsAny(value, "\r\n") {
		return New()
	}
	return value
}

// WithID returns a new context carrying the correlation id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the correlation id stored in ctx, or "" if none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Ensure returns the id stored in ctx, generating and attaching one if absent.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := New()
	return WithID(ctx, id), id
}
