// ABOUTME: wallet_transfer tool: ceiling, confirmation token, idempotency, then execution
// ABOUTME: Funds move at most once per idempotency key and only for approved parameters

package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/2389/toolgate/internal/confirm"
	"github.com/2389/toolgate/internal/correlation"
	"github.com/2389/toolgate/internal/idempotency"
	"github.com/2389/toolgate/internal/metrics"
	"github.com/2389/toolgate/internal/tools"
)

// Transfer statuses.
const (
	StatusSubmitted = "submitted"
	StatusDuplicate = "duplicate"
	StatusMocked    = "mocked"
)

// TokenVerifier checks a confirmation token against the attested payload.
type TokenVerifier interface {
	Verify(token string, p confirm.Payload) (skipped bool, err error)
}

// OnceGuard claims an idempotency key for a payload hash.
type OnceGuard interface {
	EnsureOnce(ctx context.Context, key, payloadHash string) (wasDuplicate bool, err error)
}

// RecordLookup reads idempotency records.
type RecordLookup interface {
	Lookup(ctx context.Context, key string) (*idempotency.Record, error)
}

// Deps are the collaborators the wallet tools need.
type Deps struct {
	Verifier TokenVerifier
	Guard    OnceGuard
	Records  RecordLookup
	Metrics  *metrics.Metrics
}

// TransferInput is the wallet_transfer request.
type TransferInput struct {
	FromWallet        string  `json:"fromWallet" jsonschema:"minLength=1,maxLength=128" jsonschema_description:"Source wallet address"`
	ToWallet          string  `json:"toWallet" jsonschema:"minLength=1,maxLength=128" jsonschema_description:"Destination wallet address"`
	AmountSol         float64 `json:"amountSol" jsonschema:"exclusiveMinimum=0" jsonschema_description:"Amount in SOL"`
	Memo              string  `json:"memo,omitempty" jsonschema:"maxLength=256"`
	IdempotencyKey    string  `json:"idempotencyKey" jsonschema:"minLength=1,maxLength=128" jsonschema_description:"Caller-chosen key identifying this logical transfer"`
	ConfirmationToken string  `json:"confirmationToken,omitempty" jsonschema:"maxLength=512" jsonschema_description:"Token approving these exact transfer parameters"`
}

// TransferOutput is the wallet_transfer result.
type TransferOutput struct {
	Status               string  `json:"status" jsonschema:"enum=submitted,enum=duplicate,enum=mocked"`
	IdempotencyKey       string  `json:"idempotencyKey"`
	SubmittedAt          string  `json:"submittedAt"`
	WasDuplicate         bool    `json:"wasDuplicate"`
	TransactionSignature *string `json:"transactionSignature" jsonschema:"oneof_type=string;null"`
}

type transferRequest struct {
	FromWallet string  `json:"fromWallet"`
	ToWallet   string  `json:"toWallet"`
	AmountSol  float64 `json:"amountSol"`
	Memo       string  `json:"memo"`
}

type transferResponse struct {
	Signature            string `json:"signature"`
	TransactionSignature string `json:"transactionSignature"`
}

// NewTransferTool builds the wallet_transfer tool.
func NewTransferTool(d Deps) *tools.Tool {
	return tools.New("wallet_transfer",
		"Transfer SOL between wallets. Requires a confirmation token for the exact parameters and an idempotency key; retries with the same key never move funds twice.",
		true,
		func(ctx context.Context, ec *tools.ExecContext, in TransferInput) (TransferOutput, error) {
			return transfer(ctx, ec, d, in)
		})
}

func transfer(ctx context.Context, ec *tools.ExecContext, d Deps, in TransferInput) (TransferOutput, error) {
	cfg := ec.Config
	log := ec.Logger.With("tool", "wallet_transfer", "idempotency_key", in.IdempotencyKey)

	if in.AmountSol > cfg.Wallet.MaxSol {
		return TransferOutput{}, &AmountExceedsMaxError{Amount: in.AmountSol, Max: cfg.Wallet.MaxSol}
	}

	payload := confirm.Payload{
		FromWallet: in.FromWallet,
		ToWallet:   in.ToWallet,
		AmountSol:  in.AmountSol,
		Memo:       in.Memo,
	}
	skipped, err := d.Verifier.Verify(in.ConfirmationToken, payload)
	if err != nil {
		log.Info("confirmation token rejected", "error", err)
		return TransferOutput{}, err
	}
	if skipped {
		log.Warn("transfer accepted without confirmation token verification")
	}

	payloadHash := confirm.HashPayload(payload)
	dup, err := d.Guard.EnsureOnce(ctx, in.IdempotencyKey, payloadHash)
	if err != nil {
		return TransferOutput{}, err
	}

	submittedAt := ec.Now().UTC().Format(time.RFC3339)
	if dup {
		log.Info("duplicate transfer suppressed")
		d.Metrics.ObserveTransfer(StatusDuplicate)
		return TransferOutput{
			Status:         StatusDuplicate,
			IdempotencyKey: in.IdempotencyKey,
			SubmittedAt:    submittedAt,
			WasDuplicate:   true,
		}, nil
	}

	if cfg.DryRun() {
		sig := mockSignature(in.IdempotencyKey, payloadHash)
		log.Info("transfer simulated", "signature", sig)
		d.Metrics.ObserveTransfer(StatusMocked)
		return TransferOutput{
			Status:               StatusMocked,
			IdempotencyKey:       in.IdempotencyKey,
			SubmittedAt:          submittedAt,
			TransactionSignature: &sig,
		}, nil
	}

	sig, err := execute(ctx, ec, in)
	if err != nil {
		log.Error("transfer execution failed", "error", err)
		return TransferOutput{}, &TransferExecutionError{Err: err}
	}

	log.Info("transfer submitted", "signature", sig)
	d.Metrics.ObserveTransfer(StatusSubmitted)
	return TransferOutput{
		Status:               StatusSubmitted,
		IdempotencyKey:       in.IdempotencyKey,
		SubmittedAt:          submittedAt,
		TransactionSignature: &sig,
	}, nil
}

func execute(ctx context.Context, ec *tools.ExecContext, in TransferInput) (string, error) {
	if ec.Backend == nil {
		return "", errors.New("backend is not configured")
	}

	memo := in.Memo
	if memo == "" {
		memo = "toolgate:" + in.IdempotencyKey
	}

	headers := http.Header{}
	headers.Set("Idempotency-Key", in.IdempotencyKey)
	headers.Set(correlation.Header, ec.CorrelationID)

	var resp transferResponse
	err := ec.Backend.CallFunction(ctx, ec.Config.Tools.WalletTransferFunction, transferRequest{
		FromWallet: in.FromWallet,
		ToWallet:   in.ToWallet,
		AmountSol:  in.AmountSol,
		Memo:       memo,
	}, headers, &resp)
	if err != nil {
		return "", err
	}

	sig := resp.Signature
	if sig == "" {
		sig = resp.TransactionSignature
	}
	if sig == "" {
		return "", errors.New("transfer function returned no signature")
	}
	return sig, nil
}

// mockSignature is deterministic so dry-run retries are recognisable.
func mockSignature(key, payloadHash string) string {
	sum := sha256.Sum256([]byte(key + "|" + payloadHash))
	return "mock_" + hex.EncodeToString(sum[:])[:32]
}
