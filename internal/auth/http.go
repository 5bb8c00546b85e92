// ABOUTME: Bearer-token authentication for the HTTP gateway
// ABOUTME: Accepts the static service token or, when configured, an HS256 JWT

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/toolgate/internal/config"
)

// ErrUnauthorized is wrapped by every authentication failure.
var ErrUnauthorized = errors.New("unauthorized")

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Authenticator checks service credentials.
type Authenticator struct {
	token []byte
	jwt   *JWTVerifier
}

// NewAuthenticator builds an Authenticator from config. With neither a static
// token nor a JWT secret configured, authentication is disabled.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	a := &Authenticator{}
	if cfg.BearerToken != "" {
		a.token = []byte(cfg.BearerToken)
	}
	if cfg.JWTSecret != "" {
		v, err := NewJWTVerifier([]byte(cfg.JWTSecret))
		if err != nil {
			return nil, err
		}
		a.jwt = v
	}
	return a, nil
}

// Enabled reports whether any credential is configured.
func (a *Authenticator) Enabled() bool {
	return a.token != nil || a.jwt != nil
}

// Authenticate validates an Authorization header value.
func (a *Authenticator) Authenticate(header string) (*Principal, error) {
	if !a.Enabled() {
		return &Principal{Subject: "anonymous", Method: MethodDisabled}, nil
	}

	token, errMsg := extractBearerToken(header)
	if errMsg != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, errMsg)
	}

	if a.token != nil && subtle.ConstantTimeCompare([]byte(token), a.token) == 1 {
		return &Principal{Subject: "service", Method: MethodStatic}, nil
	}

	if a.jwt != nil {
		sub, err := a.jwt.Verify(token)
		if err == nil {
			return &Principal{Subject: sub, Method: MethodJWT}, nil
		}
		if errors.Is(err, ErrExpiredToken) {
			return nil, fmt.Errorf("%w: token expired", ErrUnauthorized)
		}
	}

	return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
}

// Middleware rejects unauthenticated requests through fail and attaches the
// Principal to the context of the rest. CORS preflight requests pass through.
func Middleware(a *Authenticator, logger *slog.Logger, fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			p, err := a.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("request rejected", "path", r.URL.Path, "reason", err)
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
