// ABOUTME: transfer_status tool reporting whether an idempotency key was used
// ABOUTME: Reads the idempotency store without touching it

package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/2389/toolgate/internal/idempotency"
	"github.com/2389/toolgate/internal/tools"
)

// StatusInput is the transfer_status request.
type StatusInput struct {
	IdempotencyKey string `json:"idempotencyKey" jsonschema:"minLength=1,maxLength=128"`
}

// StatusOutput is the transfer_status result.
type StatusOutput struct {
	IdempotencyKey string `json:"idempotencyKey"`
	Found          bool   `json:"found"`
	PayloadHash    string `json:"payloadHash,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// NewStatusTool builds the transfer_status tool.
func NewStatusTool(d Deps) *tools.Tool {
	return tools.New("transfer_status", "Report whether a transfer with the given idempotency key has been accepted.", true,
		func(ctx context.Context, _ *tools.ExecContext, in StatusInput) (StatusOutput, error) {
			rec, err := d.Records.Lookup(ctx, in.IdempotencyKey)
			if errors.Is(err, idempotency.ErrNotFound) {
				return StatusOutput{IdempotencyKey: in.IdempotencyKey}, nil
			}
			if err != nil {
				return StatusOutput{}, err
			}
			return StatusOutput{
				IdempotencyKey: in.IdempotencyKey,
				Found:          true,
				PayloadHash:    rec.PayloadHash,
				CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339),
			}, nil
		})
}

// Tools returns every wallet tool.
func Tools(d Deps) []*tools.Tool {
	return []*tools.Tool{NewTransferTool(d), NewBalanceTool(), NewStatusTool(d)}
}
