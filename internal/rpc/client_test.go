// ABOUTME: Tests for the backend RPC client
// ABOUTME: Uses httptest servers to check paths, headers and error handling

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/toolgate/internal/config"
)

func TestCallRPC(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/rpc/get_wallet_balance", r.URL.Path)
		assert.Equal(t, "svc", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer svc", r.Header.Get("Authorization"))

		var params map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "wallet-1", params["p_wallet"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance_sol": 2.5}`))
	}))
	defer server.Close()

	client := New(config.BackendConfig{URL: server.URL + "/", ServiceKey: "svc", Timeout: time.Second})

	var out struct {
		BalanceSol float64 `json:"balance_sol"`
	}
	err := client.CallRPC(context.Background(), "get_wallet_balance", map[string]string{"p_wallet": "wallet-1"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2.5, out.BalanceSol)
}

func TestCallFunction_ForwardsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/wallet-transfer", r.URL.Path)
		assert.Equal(t, "K1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "corr-1", r.Header.Get("X-Correlation-Id"))
		_, _ = w.Write([]byte(`{"signature":"sig"}`))
	}))
	defer server.Close()

	client := New(config.BackendConfig{URL: server.URL})
	headers := http.Header{}
	headers.Set("Idempotency-Key", "K1")
	headers.Set("X-Correlation-Id", "corr-1")

	var out map[string]string
	require.NoError(t, client.CallFunction(context.Background(), "wallet-transfer", map[string]any{}, headers, &out))
	assert.Equal(t, "sig", out["signature"])
}

func TestCall_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(config.BackendConfig{URL: server.URL})
	err := client.CallFunction(context.Background(), "wallet-transfer", nil, nil, nil)

	var backendErr *Error
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, http.StatusBadRequest, backendErr.Status)
	assert.Equal(t, "insufficient funds", backendErr.Body)
}

func TestCall_NotConfigured(t *testing.T) {
	client := New(config.BackendConfig{})
	err := client.CallRPC(context.Background(), "anything", nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCall_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var out map[string]any
	client := New(config.BackendConfig{URL: server.URL})
	require.NoError(t, client.CallRPC(context.Background(), "noop", nil, &out))
	assert.Nil(t, out)
}
