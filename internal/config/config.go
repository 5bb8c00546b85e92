// ABOUTME: Configuration loading and parsing for toolgate
// ABOUTME: Supports YAML or TOML files, environment variable expansion and env overrides

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Mode selects between simulated and real downstream effects.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeLive Mode = "live"
)

// Idempotency store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverRPC    = "rpc"
)

// Config represents the complete toolgate configuration
type Config struct {
	Mode         Mode               `yaml:"mode" toml:"mode"`
	Server       ServerConfig       `yaml:"server" toml:"server"`
	Auth         AuthConfig         `yaml:"auth" toml:"auth"`
	Backend      BackendConfig      `yaml:"backend" toml:"backend"`
	Tools        ToolsConfig        `yaml:"tools" toml:"tools"`
	Wallet       WalletConfig       `yaml:"wallet" toml:"wallet"`
	Confirmation ConfirmationConfig `yaml:"confirmation" toml:"confirmation"`
	Idempotency  IdempotencyConfig  `yaml:"idempotency" toml:"idempotency"`
	Logging      LoggingConfig      `yaml:"logging" toml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics" toml:"metrics"`
	MCP          MCPConfig          `yaml:"mcp" toml:"mcp"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// AuthConfig holds service-to-service authentication configuration
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token" toml:"bearer_token"`
	// JWTSecret optionally enables HS256 service tokens alongside the static token
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
}

// BackendConfig describes the external RPC / function collaborator
type BackendConfig struct {
	URL        string        `yaml:"url" toml:"url"`
	ServiceKey string        `yaml:"service_key" toml:"service_key"`
	Timeout    time.Duration `yaml:"-" toml:"-"`

	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// ToolsConfig names the backend RPCs and functions each tool calls
type ToolsConfig struct {
	WalletBalanceRPC       string `yaml:"wallet_balance_rpc" toml:"wallet_balance_rpc"`
	WalletTransferFunction string `yaml:"wallet_transfer_function" toml:"wallet_transfer_function"`
}

// WalletConfig holds limits for money-moving tools
type WalletConfig struct {
	MaxSol float64 `yaml:"max_sol" toml:"max_sol"`
	DryRun bool    `yaml:"dry_run" toml:"dry_run"`
}

// ConfirmationConfig holds the confirmation token secret and validity window
type ConfirmationConfig struct {
	Secret string        `yaml:"secret" toml:"secret"`
	TTL    time.Duration `yaml:"-" toml:"-"`

	TTLRaw string `yaml:"ttl" toml:"ttl"`
}

// IdempotencyConfig selects and tunes the idempotency backing store
type IdempotencyConfig struct {
	Driver     string        `yaml:"driver" toml:"driver"`
	TTL        time.Duration `yaml:"-" toml:"-"`
	MaxEntries int           `yaml:"max_entries" toml:"max_entries"`
	RPCName    string        `yaml:"rpc_name" toml:"rpc_name"`
	SQLitePath string        `yaml:"sqlite_path" toml:"sqlite_path"`
	Redis      RedisConfig   `yaml:"redis" toml:"redis"`

	TTLRaw string `yaml:"ttl" toml:"ttl"`
}

// RedisConfig holds connection settings for the redis idempotency store
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Prefix   string `yaml:"prefix" toml:"prefix"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// MCPConfig holds configuration for the MCP transport
type MCPConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Default returns a Config populated with defaults suitable for local mock mode.
func Default() *Config {
	return &Config{
		Mode:   ModeMock,
		Server: ServerConfig{HTTPAddr: ":8787"},
		Backend: BackendConfig{
			Timeout:    15 * time.Second,
			TimeoutRaw: "15s",
		},
		Tools: ToolsConfig{
			WalletBalanceRPC:       "get_wallet_balance",
			WalletTransferFunction: "wallet-transfer",
		},
		Wallet: WalletConfig{MaxSol: 10},
		Confirmation: ConfirmationConfig{
			TTL:    5 * time.Minute,
			TTLRaw: "5m",
		},
		Idempotency: IdempotencyConfig{
			Driver:     DriverMemory,
			RPCName:    "ensure_idempotency_key",
			Redis:      RedisConfig{Prefix: "toolgate:idem:"},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		MCP:     MCPConfig{Enabled: true, Path: "/mcp"},
	}
}

// Load builds a Config from defaults, the optional file at path and the environment.
// Environment variables in the format ${VAR_NAME} are expanded inside the file.
// Files ending in .toml are decoded as TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))

		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(expanded, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		} else if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnv overrides configuration values from TOOLGATE_* environment variables.
func applyEnv(cfg *Config) error {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("TOOLGATE_MODE"); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.HTTPAddr = ":" + port
	}
	setString("TOOLGATE_HTTP_ADDR", &cfg.Server.HTTPAddr)
	setString("TOOLGATE_BEARER_TOKEN", &cfg.Auth.BearerToken)
	setString("TOOLGATE_JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("TOOLGATE_BACKEND_URL", &cfg.Backend.URL)
	setString("TOOLGATE_BACKEND_KEY", &cfg.Backend.ServiceKey)
	setString("TOOLGATE_BALANCE_RPC", &cfg.Tools.WalletBalanceRPC)
	setString("TOOLGATE_TRANSFER_FUNCTION", &cfg.Tools.WalletTransferFunction)
	setString("TOOLGATE_CONFIRMATION_SECRET", &cfg.Confirmation.Secret)
	setString("TOOLGATE_IDEMPOTENCY_DRIVER", &cfg.Idempotency.Driver)
	setString("TOOLGATE_IDEMPOTENCY_RPC", &cfg.Idempotency.RPCName)
	setString("TOOLGATE_LOG_LEVEL", &cfg.Logging.Level)
	setString("TOOLGATE_LOG_FORMAT", &cfg.Logging.Format)

	if v := os.Getenv("TOOLGATE_WALLET_MAX_SOL"); v != "" {
		maxSol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing TOOLGATE_WALLET_MAX_SOL %q: %w", v, err)
		}
		cfg.Wallet.MaxSol = maxSol
	}

	if v := os.Getenv("TOOLGATE_CONFIRMATION_TTL_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing TOOLGATE_CONFIRMATION_TTL_SECONDS %q: %w", v, err)
		}
		cfg.Confirmation.TTL = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("TOOLGATE_IDEMPOTENCY_TTL_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing TOOLGATE_IDEMPOTENCY_TTL_SECONDS %q: %w", v, err)
		}
		cfg.Idempotency.TTL = time.Duration(secs) * time.Second
	}

	return nil
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeMock, ModeLive:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeMock, ModeLive, c.Mode)
	}

	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Mode == ModeLive {
		if c.Auth.BearerToken == "" && c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.bearer_token is required in live mode")
		}
		// A missing secret in live mode must never turn into a verification bypass.
		if c.Confirmation.Secret == "" {
			return fmt.Errorf("confirmation.secret is required in live mode")
		}
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required in live mode")
		}
	}

	if c.Wallet.MaxSol <= 0 {
		return fmt.Errorf("wallet.max_sol must be positive")
	}
	if c.Confirmation.TTL <= 0 {
		return fmt.Errorf("confirmation.ttl must be positive")
	}
	if c.Confirmation.TTL%time.Second != 0 {
		return fmt.Errorf("confirmation.ttl must be a whole number of seconds, got %s", c.Confirmation.TTL)
	}
	if c.Idempotency.TTL < 0 {
		return fmt.Errorf("idempotency.ttl must not be negative")
	}
	if c.Idempotency.MaxEntries < 0 {
		return fmt.Errorf("idempotency.max_entries must not be negative")
	}

	switch c.Idempotency.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Idempotency.SQLitePath == "" {
			return fmt.Errorf("idempotency.sqlite_path is required for the sqlite driver")
		}
	case DriverRedis:
		if c.Idempotency.Redis.Addr == "" {
			return fmt.Errorf("idempotency.redis.addr is required for the redis driver")
		}
	case DriverRPC:
		if c.Idempotency.RPCName == "" {
			return fmt.Errorf("idempotency.rpc_name is required for the rpc driver")
		}
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required for the rpc idempotency driver")
		}
	default:
		return fmt.Errorf("unknown idempotency.driver %q", c.Idempotency.Driver)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("mcp.path must start with /")
	}

	return nil
}

// DryRun reports whether downstream fund movement should be simulated.
// Mock mode always forces a dry run.
func (c *Config) DryRun() bool {
	return c.Mode == ModeMock || c.Wallet.DryRun
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Backend.TimeoutRaw != "" {
		cfg.Backend.Timeout, err = time.ParseDuration(cfg.Backend.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing backend.timeout %q: %w", cfg.Backend.TimeoutRaw, err)
		}
	}

	if cfg.Confirmation.TTLRaw != "" {
		cfg.Confirmation.TTL, err = time.ParseDuration(cfg.Confirmation.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing confirmation.ttl %q: %w", cfg.Confirmation.TTLRaw, err)
		}
	}

	if cfg.Idempotency.TTLRaw != "" {
		cfg.Idempotency.TTL, err = time.ParseDuration(cfg.Idempotency.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing idempotency.ttl %q: %w", cfg.Idempotency.TTLRaw, err)
		}
	}

	return nil
}
