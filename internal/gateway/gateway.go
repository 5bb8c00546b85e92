// ABOUTME: Gateway orchestrator wiring config, tools, protocols and the HTTP server
// ABOUTME: Manages the idempotency store and HTTP lifecycle including graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/2389/toolgate/internal/auth"
	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/confirm"
	"github.com/2389/toolgate/internal/idempotency"
	"github.com/2389/toolgate/internal/mcp"
	"github.com/2389/toolgate/internal/metrics"
	"github.com/2389/toolgate/internal/prompts"
	"github.com/2389/toolgate/internal/resources"
	"github.com/2389/toolgate/internal/rpc"
	"github.com/2389/toolgate/internal/tools"
	"github.com/2389/toolgate/internal/wallet"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// shutdownTimeout bounds graceful shutdown once Run's context is cancelled.
const shutdownTimeout = 5 * time.Second

// Gateway serves the tool registry over HTTP.
type Gateway struct {
	config     *config.Config
	logger     *slog.Logger
	now        func() time.Time
	store      idempotency.Store
	dispatcher *tools.Dispatcher
	prompts    *prompts.Registry
	resources  *resources.Router
	auth       *auth.Authenticator
	metrics    *metrics.Metrics
	mcpServer  *mcp.Server
	router     chi.Router
	httpServer *http.Server
}

type options struct {
	backend rpc.Backend
	store   idempotency.Store
	now     func() time.Time
	extra   []*tools.Tool
	version string
}

// Option customizes a Gateway.
type Option func(*options)

// WithBackend replaces the HTTP backend client built from config.
func WithBackend(b rpc.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithStore replaces the idempotency store opened from config. The gateway
// takes ownership and closes it on shutdown.
func WithStore(s idempotency.Store) Option {
	return func(o *options) { o.store = s }
}

// WithClock replaces the wall clock used for tokens, idempotency records and health.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTools registers tools alongside the built-in wallet tools.
func WithTools(t ...*tools.Tool) Option {
	return func(o *options) { o.extra = append(o.extra, t...) }
}

// WithVersion sets the version advertised over MCP.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// New creates a gateway from a validated configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{now: time.Now, version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	backend := o.backend
	if backend == nil {
		backend = rpc.New(cfg.Backend)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = idempotency.Open(cfg.Idempotency, backend, logger)
		if err != nil {
			return nil, fmt.Errorf("opening idempotency store: %w", err)
		}
	}

	g, err := build(cfg, logger, backend, store, o)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return g, nil
}

func build(cfg *config.Config, logger *slog.Logger, backend rpc.Backend, store idempotency.Store, o options) (*Gateway, error) {
	authn, err := auth.NewAuthenticator(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("configuring auth: %w", err)
	}
	if !authn.Enabled() {
		logger.Warn("authentication disabled: no bearer token or jwt secret configured")
	}

	m := metrics.New()

	verifier := confirm.NewVerifier(cfg.Confirmation, cfg.Mode, logger)
	verifier.Now = o.now
	guard := idempotency.NewGuard(store, cfg.Idempotency.TTL).WithClock(o.now)

	all := wallet.Tools(wallet.Deps{
		Verifier: verifier,
		Guard:    guard,
		Records:  guard,
		Metrics:  m,
	})
	all = append(all, o.extra...)

	registry, err := tools.NewRegistry(all...)
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}
	dispatcher := tools.NewDispatcher(registry, cfg, backend, logger, m).WithClock(o.now)

	promptRegistry, err := prompts.NewRegistry(prompts.Builtin(cfg, registry)...)
	if err != nil {
		return nil, fmt.Errorf("building prompt registry: %w", err)
	}

	g := &Gateway{
		config:     cfg,
		logger:     logger.With("component", "gateway"),
		now:        o.now,
		store:      store,
		dispatcher: dispatcher,
		prompts:    promptRegistry,
		resources: resources.NewRouter().
			Register("tools", resources.NewToolsProvider(registry)).
			Register("idempotency", resources.NewIdempotencyProvider(store)),
		auth:    authn,
		metrics: m,
	}
	if cfg.MCP.Enabled {
		g.mcpServer = mcp.NewServer(dispatcher, o.version, logger)
	}

	g.router = g.routes()
	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.logger.Info("gateway configured",
		"mode", cfg.Mode,
		"tools", registry.Len(),
		"idempotency_driver", cfg.Idempotency.Driver,
		"dry_run", cfg.DryRun(),
	)
	return g, nil
}

// Handler returns the gateway's HTTP handler.
func (g *Gateway) Handler() http.Handler { return g.router }

// Dispatcher returns the gateway's tool dispatcher.
func (g *Gateway) Dispatcher() *tools.Dispatcher { return g.dispatcher }

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		_ = g.store.Close()
		return fmt.Errorf("listening on %s: %w", g.config.Server.HTTPAddr, err)
	}
	return g.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
		close(errCh)
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			serverErr = err
		}
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server and closes the idempotency store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("idempotency store close: %w", err))
	}
	return errors.Join(errs...)
}
