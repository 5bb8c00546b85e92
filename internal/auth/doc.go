// Package auth authenticates service-to-service callers of the gateway.
//
// Callers present "Authorization: Bearer <token>". The token is accepted when
// it matches the configured static token (compared in constant time) or, if a
// JWT secret is configured, when it is an HS256 JWT carrying a "sub" claim.
//
// With neither credential configured authentication is disabled. Configuration
// validation only permits that in mock mode.
package auth
