// ABOUTME: Principal context for tracking the authenticated caller through handlers
// ABOUTME: Provides WithPrincipal/FromContext for propagating identity via context

package auth

import (
	"context"
)

// Authentication methods recorded on a Principal.
const (
	MethodStatic   = "static"
	MethodJWT      = "jwt"
	MethodDisabled = "disabled"
)

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Method  string
}

type principalKey struct{}

// WithPrincipal returns a new context with p attached.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the Principal from ctx, returning nil if not present.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
