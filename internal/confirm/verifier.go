// ABOUTME: Verifier applies the configured secret, TTL and mode to token checks
// ABOUTME: Only mock mode may skip verification when no secret is configured

package confirm

import (
	"log/slog"
	"time"

	"github.com/2389/toolgate/internal/config"
)

// Verifier checks confirmation tokens using server configuration.
type Verifier struct {
	Secret string
	TTL    time.Duration
	Mode   config.Mode
	Now    func() time.Time
	Logger *slog.Logger
}

// NewVerifier builds a Verifier from the confirmation config.
func NewVerifier(cfg config.ConfirmationConfig, mode config.Mode, logger *slog.Logger) *Verifier {
	return &Verifier{
		Secret: cfg.Secret,
		TTL:    cfg.TTL,
		Mode:   mode,
		Now:    time.Now,
		Logger: logger,
	}
}

// Verify checks token against p. It reports skipped=true when verification
// was bypassed because mock mode runs without a secret.
func (v *Verifier) Verify(token string, p Payload) (skipped bool, err error) {
	if v.Secret == "" {
		if v.Mode != config.ModeMock {
			return false, ErrSecretMissing
		}
		if v.Logger != nil {
			v.Logger.Warn("confirmation secret not configured, skipping token verification", "mode", v.Mode)
		}
		return true, nil
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	return false, Verify(v.Secret, token, p, now(), v.TTL)
}

// Issue generates a token with the configured secret.
func (v *Verifier) Issue(p Payload) (string, error) {
	if v.Secret == "" {
		return "", ErrSecretMissing
	}
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	return Generate(v.Secret, p, now()), nil
}
