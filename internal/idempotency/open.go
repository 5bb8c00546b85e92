// ABOUTME: Store construction from configuration
// ABOUTME: Selects the memory, sqlite, redis or rpc backend by driver name

package idempotency

import (
	"fmt"
	"log/slog"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/rpc"
)

// Open creates the store selected by cfg.Driver.
func Open(cfg config.IdempotencyConfig, backend rpc.Backend, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		if cfg.MaxEntries > 0 {
			logger.Warn("memory idempotency store rejects new keys once full",
				"max_entries", cfg.MaxEntries, "ttl", cfg.TTL)
		} else {
			logger.Warn("memory idempotency store grows without bound and is lost on restart",
				"ttl", cfg.TTL)
		}
		return NewMemoryStore(cfg.MaxEntries), nil
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case config.DriverRedis:
		var opts []RedisOption
		if cfg.Redis.Prefix != "" {
			opts = append(opts, WithRedisPrefix(cfg.Redis.Prefix))
		}
		return NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...), nil
	case config.DriverRPC:
		if backend == nil {
			return nil, fmt.Errorf("idempotency driver %q requires a backend", cfg.Driver)
		}
		return NewRPCStore(backend, cfg.RPCName), nil
	default:
		return nil, fmt.Errorf("unknown idempotency driver %q", cfg.Driver)
	}
}
