// Package config handles configuration loading for toolgate.
//
// # Overview
//
// Configuration is assembled in layers: built-in defaults, an optional YAML or
// TOML file, then TOOLGATE_* environment overrides. The result is validated
// before the gateway starts.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from the --config flag
//  2. Path from TOOLGATE_CONFIG environment variable
//  3. ./toolgate.yaml (current directory), if present
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	confirmation:
//	  secret: "${TOOLGATE_CONFIRMATION_SECRET}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	confirmation:
//	  ttl: "5m"
//	idempotency:
//	  ttl: "24h"   # 0 keeps keys forever
//
// # Modes
//
//	mode: mock   # downstream transfers are simulated, auth/secret may be empty
//	mode: live   # bearer token, confirmation secret and backend url are required
//
// Mock mode always forces wallet dry-run.
//
// # Idempotency drivers
//
//	idempotency:
//	  driver: memory   # process-local, serialised under one lock
//	  driver: sqlite   # sqlite_path required
//	  driver: redis    # redis.addr required
//	  driver: rpc      # rpc_name on the backend, backend.url required
package config
