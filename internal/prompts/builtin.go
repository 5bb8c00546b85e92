// ABOUTME: Built-in prompts: transfer_review and tool_catalog
// ABOUTME: Explain the transfer safety protocol and list the registered tools

package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/tools"
)

// TransferReviewParams are the transfer fields to review.
type TransferReviewParams struct {
	FromWallet string  `json:"fromWallet" jsonschema:"minLength=1"`
	ToWallet   string  `json:"toWallet" jsonschema:"minLength=1"`
	AmountSol  float64 `json:"amountSol" jsonschema:"exclusiveMinimum=0"`
	Memo       string  `json:"memo,omitempty"`
}

// CatalogParams takes no fields.
type CatalogParams struct{}

const reviewSystem = `You review SOL transfers before they are submitted through the toolgate wallet_transfer tool.
A transfer needs two things besides its parameters:
1. A confirmation token issued for exactly these parameters. Changing any field, including the memo, invalidates it, and it expires after %s.
2. An idempotency key that identifies this logical transfer. Retrying with the same key never moves funds twice; reusing it for different parameters is rejected.
Transfers above %s SOL are refused.`

// Builtin returns the built-in prompts.
func Builtin(cfg *config.Config, registry *tools.Registry) []*Prompt {
	return []*Prompt{
		New("transfer_review", "Summarise a transfer and the approvals it needs before submission.",
			func(_ context.Context, p TransferReviewParams) ([]Message, error) {
				maxSol := strconv.FormatFloat(cfg.Wallet.MaxSol, 'f', -1, 64)

				var b strings.Builder
				fmt.Fprintf(&b, "Please review this transfer:\n- from: %s\n- to: %s\n- amount: %s SOL\n",
					p.FromWallet, p.ToWallet, strconv.FormatFloat(p.AmountSol, 'f', -1, 64))
				if p.Memo != "" {
					fmt.Fprintf(&b, "- memo: %s\n", p.Memo)
				}
				if p.AmountSol > cfg.Wallet.MaxSol {
					fmt.Fprintf(&b, "Note: this amount exceeds the %s SOL limit and will be rejected.\n", maxSol)
				}

				return []Message{
					{Role: "system", Content: fmt.Sprintf(reviewSystem, cfg.Confirmation.TTL, maxSol)},
					{Role: "user", Content: b.String()},
				}, nil
			}),
		New("tool_catalog", "List the tools this gateway exposes.",
			func(_ context.Context, _ CatalogParams) ([]Message, error) {
				var b strings.Builder
				b.WriteString("Available tools:\n")
				for _, def := range registry.List() {
					fmt.Fprintf(&b, "- %s: %s", def.Name, def.Description)
					if def.Idempotent {
						b.WriteString(" (idempotent)")
					}
					b.WriteString("\n")
				}
				return []Message{
					{Role: "system", Content: "You can call the tools listed below through the toolgate gateway."},
					{Role: "user", Content: b.String()},
				}, nil
			}),
	}
}
