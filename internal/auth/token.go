// ABOUTME: HS256 bearer JWTs for service callers of the gateway
// ABOUTME: The "sub" claim names the calling service and "exp" is mandatory

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum JWT secret size in bytes.
const MinSecretLength = 32

// Issuer is written into every token minted by Generate.
const Issuer = "toolgate"

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrWeakSecret   = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
)

// ServiceClaims are the claims carried by a service token. Subject identifies
// the calling service; it becomes Principal.Subject and appears in logs.
// Tokens from other issuers are accepted as long as they are signed with the
// shared secret and carry sub and exp.
type ServiceClaims struct {
	jwt.RegisteredClaims
}

// JWTVerifier mints and checks service tokens signed with a shared HS256
// secret. Only HS256 is accepted, so a token cannot downgrade to "none" or
// switch to another HMAC size.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewJWTVerifier creates a verifier, rejecting secrets shorter than MinSecretLength.
func NewJWTVerifier(secret []byte) (*JWTVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &JWTVerifier{secret: secret, now: time.Now}, nil
}

// Verify checks the signature and expiry of a service token and returns the
// calling service's name from its "sub" claim. Tokens without "exp" are
// rejected.
func (v *JWTVerifier) Verify(tokenString string) (subject string, err error) {
	claims := &ServiceClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "", fmt.Errorf("%w: exp", ErrMissingClaim)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	return claims.Subject, nil
}

// Generate mints a token for the named service, valid for expiresIn.
func (v *JWTVerifier) Generate(service string, expiresIn time.Duration) (string, error) {
	if service == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	now := v.now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   service,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
