// ABOUTME: Maps domain errors to HTTP statuses and renders JSON error bodies
// ABOUTME: Every error body carries the request's correlation id

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/2389/toolgate/internal/auth"
	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/confirm"
	"github.com/2389/toolgate/internal/correlation"
	"github.com/2389/toolgate/internal/idempotency"
	"github.com/2389/toolgate/internal/prompts"
	"github.com/2389/toolgate/internal/resources"
	"github.com/2389/toolgate/internal/schema"
	"github.com/2389/toolgate/internal/tools"
	"github.com/2389/toolgate/internal/wallet"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId"`
}

var debugStack = debug.Stack

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var (
		verr     *schema.ValidationError
		tooLarge *http.MaxBytesError
		ceiling  *wallet.AmountExceedsMaxError
		execErr  *wallet.TransferExecutionError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &verr),
		errors.Is(err, resources.ErrInvalidURI),
		errors.Is(err, resources.ErrInvalidQuery),
		errors.Is(err, resources.ErrListUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case confirm.IsTokenError(err):
		return http.StatusForbidden
	case errors.Is(err, tools.ErrToolNotFound),
		errors.Is(err, prompts.ErrPromptNotFound),
		errors.Is(err, resources.ErrProviderNotFound),
		errors.Is(err, resources.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, idempotency.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &ceiling):
		return http.StatusUnprocessableEntity
	case errors.As(err, &execErr):
		return http.StatusBadGateway
	case errors.Is(err, idempotency.ErrStoreFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with its mapped status. Unclassified errors are
// logged and, in live mode, reported without detail.
func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		g.logger.Error("request failed",
			"path", r.URL.Path,
			"correlation_id", correlation.FromContext(r.Context()),
			"error", err,
		)
		if g.config.Mode == config.ModeLive {
			msg = "internal server error"
		}
	}
	g.writeErrorStatus(w, r, status, msg)
}

func (g *Gateway) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	g.writeJSON(w, status, ErrorResponse{
		Error:         msg,
		CorrelationID: requestID(w, r),
	})
}

// requestID finds the correlation id even outside the correlation middleware,
// where only the response header has been set.
func requestID(w http.ResponseWriter, r *http.Request) string {
	if id := correlation.FromContext(r.Context()); id != "" {
		return id
	}
	return w.Header().Get(correlation.Header)
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Warn("failed to encode response", "error", err)
	}
}
