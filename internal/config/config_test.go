// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML/TOML loading, env var expansion, env overrides and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != ModeMock {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeMock)
	}
	if cfg.Server.HTTPAddr != ":8787" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, ":8787")
	}
	if cfg.Wallet.MaxSol != 10 {
		t.Errorf("Wallet.MaxSol = %v, want 10", cfg.Wallet.MaxSol)
	}
	if cfg.Confirmation.TTL != 5*time.Minute {
		t.Errorf("Confirmation.TTL = %v, want 5m", cfg.Confirmation.TTL)
	}
	if cfg.Idempotency.Driver != DriverMemory {
		t.Errorf("Idempotency.Driver = %q, want %q", cfg.Idempotency.Driver, DriverMemory)
	}
	if cfg.Idempotency.MaxEntries != 0 {
		t.Errorf("Idempotency.MaxEntries = %d, want 0 (unbounded)", cfg.Idempotency.MaxEntries)
	}
	if !cfg.DryRun() {
		t.Error("DryRun() = false, want true in mock mode")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "toolgate.yaml", `
mode: live
server:
  http_addr: "127.0.0.1:9000"
auth:
  bearer_token: "service-token"
backend:
  url: "https://backend.example.com"
  service_key: "svc-key"
  timeout: "3s"
tools:
  wallet_balance_rpc: "balance_rpc"
  wallet_transfer_function: "transfer_fn"
wallet:
  max_sol: 2.5
confirmation:
  secret: "confirm-secret"
  ttl: "90s"
idempotency:
  driver: sqlite
  sqlite_path: "./idem.db"
  ttl: "24h"
logging:
  level: "debug"
  format: "json"
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != ModeLive {
		t.Errorf("Mode = %q, want live", cfg.Mode)
	}
	if cfg.Server.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("Server.HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("Backend.Timeout = %v, want 3s", cfg.Backend.Timeout)
	}
	if cfg.Tools.WalletTransferFunction != "transfer_fn" {
		t.Errorf("Tools.WalletTransferFunction = %q", cfg.Tools.WalletTransferFunction)
	}
	if cfg.Wallet.MaxSol != 2.5 {
		t.Errorf("Wallet.MaxSol = %v, want 2.5", cfg.Wallet.MaxSol)
	}
	if cfg.Confirmation.TTL != 90*time.Second {
		t.Errorf("Confirmation.TTL = %v, want 90s", cfg.Confirmation.TTL)
	}
	if cfg.Idempotency.TTL != 24*time.Hour {
		t.Errorf("Idempotency.TTL = %v, want 24h", cfg.Idempotency.TTL)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	// Defaults survive for keys the file leaves out
	if cfg.MCP.Path != "/mcp" {
		t.Errorf("MCP.Path = %q, want /mcp", cfg.MCP.Path)
	}
	if cfg.DryRun() {
		t.Error("DryRun() = true, want false in live mode")
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "toolgate.toml", `
mode = "mock"

[wallet]
max_sol = 4.0
dry_run = true

[confirmation]
secret = "toml-secret"
ttl = "2m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Wallet.MaxSol != 4 {
		t.Errorf("Wallet.MaxSol = %v, want 4", cfg.Wallet.MaxSol)
	}
	if cfg.Confirmation.Secret != "toml-secret" {
		t.Errorf("Confirmation.Secret = %q", cfg.Confirmation.Secret)
	}
	if cfg.Confirmation.TTL != 2*time.Minute {
		t.Errorf("Confirmation.TTL = %v, want 2m", cfg.Confirmation.TTL)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_CONFIRM_SECRET", "secret-from-env")

	path := writeConfig(t, "toolgate.yaml", `
confirmation:
  secret: "${TEST_CONFIRM_SECRET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Confirmation.Secret != "secret-from-env" {
		t.Errorf("Confirmation.Secret = %q, want %q", cfg.Confirmation.Secret, "secret-from-env")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("TOOLGATE_WALLET_MAX_SOL", "7.5")
	t.Setenv("TOOLGATE_CONFIRMATION_TTL_SECONDS", "30")
	t.Setenv("TOOLGATE_IDEMPOTENCY_TTL_SECONDS", "3600")
	t.Setenv("PORT", "9999")
	t.Setenv("TOOLGATE_BEARER_TOKEN", "env-token")

	path := writeConfig(t, "toolgate.yaml", `
wallet:
  max_sol: 1
auth:
  bearer_token: "file-token"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Wallet.MaxSol != 7.5 {
		t.Errorf("Wallet.MaxSol = %v, want 7.5", cfg.Wallet.MaxSol)
	}
	if cfg.Confirmation.TTL != 30*time.Second {
		t.Errorf("Confirmation.TTL = %v, want 30s", cfg.Confirmation.TTL)
	}
	if cfg.Idempotency.TTL != time.Hour {
		t.Errorf("Idempotency.TTL = %v, want 1h", cfg.Idempotency.TTL)
	}
	if cfg.Server.HTTPAddr != ":9999" {
		t.Errorf("Server.HTTPAddr = %q, want :9999", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.BearerToken != "env-token" {
		t.Errorf("Auth.BearerToken = %q, want env-token", cfg.Auth.BearerToken)
	}
}

func TestLoad_InvalidEnvNumber(t *testing.T) {
	t.Setenv("TOOLGATE_WALLET_MAX_SOL", "lots")

	_, err := Load("")
	if err == nil {
		t.Fatal("Load() expected error for non-numeric max sol")
	}
	if !strings.Contains(err.Error(), "TOOLGATE_WALLET_MAX_SOL") {
		t.Errorf("error = %v, want mention of TOOLGATE_WALLET_MAX_SOL", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "toolgate.yaml", `
confirmation:
  ttl: "soon"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "confirmation.ttl") {
		t.Errorf("error = %v, want mention of confirmation.ttl", err)
	}
}

func TestValidate(t *testing.T) {
	live := func() *Config {
		cfg := Default()
		cfg.Mode = ModeLive
		cfg.Auth.BearerToken = "token"
		cfg.Confirmation.Secret = "secret"
		cfg.Backend.URL = "https://backend.example.com"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid live", mutate: func(*Config) {}},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "staging" }, wantErr: "mode must be"},
		{name: "live without secret", mutate: func(c *Config) { c.Confirmation.Secret = "" }, wantErr: "confirmation.secret"},
		{name: "live without token", mutate: func(c *Config) { c.Auth.BearerToken = "" }, wantErr: "auth.bearer_token"},
		{name: "live without backend", mutate: func(c *Config) { c.Backend.URL = "" }, wantErr: "backend.url"},
		{name: "zero ceiling", mutate: func(c *Config) { c.Wallet.MaxSol = 0 }, wantErr: "wallet.max_sol"},
		{name: "zero ttl", mutate: func(c *Config) { c.Confirmation.TTL = 0 }, wantErr: "confirmation.ttl"},
		{name: "fractional ttl", mutate: func(c *Config) { c.Confirmation.TTL = 1500 * time.Millisecond }, wantErr: "whole number of seconds"},
		{name: "negative max entries", mutate: func(c *Config) { c.Idempotency.MaxEntries = -1 }, wantErr: "max_entries"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Idempotency.Driver = DriverSQLite }, wantErr: "sqlite_path"},
		{name: "redis without addr", mutate: func(c *Config) { c.Idempotency.Driver = DriverRedis }, wantErr: "redis.addr"},
		{name: "unknown driver", mutate: func(c *Config) { c.Idempotency.Driver = "etcd" }, wantErr: "unknown idempotency.driver"},
		{name: "bad metrics path", mutate: func(c *Config) { c.Metrics.Path = "metrics" }, wantErr: "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := live()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MockAllowsMissingSecret(t *testing.T) {
	cfg := Default()
	cfg.Confirmation.Secret = ""
	cfg.Auth.BearerToken = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil in mock mode", err)
	}
}

func TestDryRun(t *testing.T) {
	cfg := Default()
	cfg.Mode = ModeLive
	if cfg.DryRun() {
		t.Error("DryRun() = true for live without dry_run")
	}
	cfg.Wallet.DryRun = true
	if !cfg.DryRun() {
		t.Error("DryRun() = false with wallet.dry_run set")
	}
}
