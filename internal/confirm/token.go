// ABOUTME: Confirmation tokens bind an approval to the exact transfer parameters
// ABOUTME: Format is "<unix>.<payloadHash>.<signature>", all HMAC-SHA256 hex

package confirm

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// PublicSalt keys the payload hash. It is not a secret: the hash only has to
// be deterministic, the signature carries the authority.
const PublicSalt = "toolgate.confirmation.v1"

var (
	ErrTokenFormat            = errors.New("confirmation token is malformed")
	ErrTokenExpired           = errors.New("confirmation token has expired")
	ErrTokenPayloadMismatch   = errors.New("confirmation token does not match the transfer parameters")
	ErrTokenSignatureMismatch = errors.New("confirmation token signature is invalid")
	ErrSecretMissing          = errors.New("confirmation secret is not configured")
)

// Payload is the set of transfer fields a caller attests to.
type Payload struct {
	FromWallet string  `json:"fromWallet"`
	ToWallet   string  `json:"toWallet"`
	AmountSol  float64 `json:"amountSol"`
	Memo       string  `json:"memo,omitempty"`
}

// IsTokenError reports whether err is one of the token rejection errors.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenFormat) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenPayloadMismatch) ||
		errors.Is(err, ErrTokenSignatureMismatch) ||
		errors.Is(err, ErrSecretMissing)
}

// HashPayload returns the hex HMAC of the payload's canonical JSON.
func HashPayload(p Payload) string {
	// Struct encoding has a fixed field order, so this is canonical.
	body, _ := json.Marshal(p)
	return hmacHex([]byte(PublicSalt), body)
}

// Generate issues a token for p at now.
func Generate(secret string, p Payload, now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	hash := HashPayload(p)
	return ts + "." + hash + "." + sign(secret, ts, hash)
}

// Verify checks token against p. Checks run in order: format, age, payload
// binding, then signature. Tokens dated in the future are accepted.
func Verify(secret, token string, p Payload, now time.Time, ttl time.Duration) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrTokenFormat
	}
	ts, hash, sig := parts[0], parts[1], parts[2]
	if ts == "" || hash == "" || sig == "" {
		return ErrTokenFormat
	}
	issued, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrTokenFormat
	}

	// Token timestamps have whole-second resolution; ttl keeps its full precision.
	if age := time.Duration(now.Unix()-issued) * time.Second; age > ttl {
		return ErrTokenExpired
	}

	if !hmac.Equal([]byte(hash), []byte(HashPayload(p))) {
		return ErrTokenPayloadMismatch
	}

	if !hmac.Equal([]byte(sig), []byte(sign(secret, ts, hash))) {
		return ErrTokenSignatureMismatch
	}
	return nil
}

func sign(secret, ts, hash string) string {
	return hmacHex([]byte(secret), []byte(ts+"."+hash))
}

func hmacHex(key, msg []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}
