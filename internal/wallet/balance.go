// ABOUTME: wallet_balance tool reading balances through the backend RPC
// ABOUTME: Mock mode returns a deterministic balance derived from the address

package wallet

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/tools"
)

// BalanceInput is the wallet_balance request.
type BalanceInput struct {
	Wallet string `json:"wallet" jsonschema:"minLength=1,maxLength=128"`
}

// BalanceOutput is the wallet_balance result.
type BalanceOutput struct {
	Wallet     string  `json:"wallet"`
	BalanceSol float64 `json:"balanceSol" jsonschema:"minimum=0"`
	Source     string  `json:"source" jsonschema:"enum=rpc,enum=mock"`
}

// NewBalanceTool builds the wallet_balance tool.
func NewBalanceTool() *tools.Tool {
	return tools.New("wallet_balance", "Read the SOL balance of a wallet.", true,
		func(ctx context.Context, ec *tools.ExecContext, in BalanceInput) (BalanceOutput, error) {
			if ec.Config.Mode == config.ModeMock {
				return BalanceOutput{Wallet: in.Wallet, BalanceSol: mockBalance(in.Wallet), Source: "mock"}, nil
			}
			if ec.Backend == nil {
				return BalanceOutput{}, errors.New("backend is not configured")
			}

			var raw json.RawMessage
			rpcName := ec.Config.Tools.WalletBalanceRPC
			if err := ec.Backend.CallRPC(ctx, rpcName, map[string]string{"p_wallet": in.Wallet}, &raw); err != nil {
				return BalanceOutput{}, fmt.Errorf("rpc %s: %w", rpcName, err)
			}
			bal, err := parseBalance(raw)
			if err != nil {
				return BalanceOutput{}, fmt.Errorf("rpc %s: %w", rpcName, err)
			}
			return BalanceOutput{Wallet: in.Wallet, BalanceSol: bal, Source: "rpc"}, nil
		})
}

// parseBalance accepts a bare number or an object with balance_sol / balanceSol.
func parseBalance(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var obj struct {
		Snake *float64 `json:"balance_sol"`
		Camel *float64 `json:"balanceSol"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, fmt.Errorf("unexpected balance reply: %s", raw)
	}
	switch {
	case obj.Snake != nil:
		return *obj.Snake, nil
	case obj.Camel != nil:
		return *obj.Camel, nil
	default:
		return 0, fmt.Errorf("balance missing from reply: %s", raw)
	}
}

func mockBalance(wallet string) float64 {
	sum := sha256.Sum256([]byte(wallet))
	return float64(binary.BigEndian.Uint32(sum[:4])%100_000) / 1000
}
