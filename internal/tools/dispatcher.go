// ABOUTME: Dispatcher routes {tool, input} requests to registered tools
// ABOUTME: Builds the per-invocation ExecContext and records metrics

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/metrics"
	"github.com/2389/toolgate/internal/rpc"
	"github.com/2389/toolgate/internal/schema"
)

var (
	// ErrToolNotFound is returned for names missing from the registry.
	ErrToolNotFound = errors.New("tool not found")
	// ErrInvalidOutput means a handler returned a value its output schema rejects.
	ErrInvalidOutput = errors.New("tool returned invalid output")
)

// NotFoundError names the tool that was requested.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return "Tool not found: " + e.Name }

// Is makes errors.Is(err, ErrToolNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrToolNotFound }

// Dispatcher invokes tools from a Registry.
type Dispatcher struct {
	registry *Registry
	cfg      *config.Config
	backend  rpc.Backend
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(registry *Registry, cfg *config.Config, backend rpc.Backend, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		cfg:      cfg,
		backend:  backend,
		now:      time.Now,
		logger:   logger.With("component", "dispatcher"),
		metrics:  m,
	}
}

// WithClock replaces the clock handed to every ExecContext.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Registry returns the dispatcher's registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// NewExecContext builds a fresh context for one invocation.
func (d *Dispatcher) NewExecContext(correlationID string) *ExecContext {
	return &ExecContext{
		Config:        d.cfg,
		Backend:       d.backend,
		Now:           d.now,
		CorrelationID: correlationID,
		Logger:        d.logger.With("correlation_id", correlationID),
	}
}

// Dispatch runs the named tool: lookup, input validation, handler, output
// validation. An empty input is treated as {}.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, input json.RawMessage, ec *ExecContext) (json.RawMessage, error) {
	start := time.Now()
	if ec == nil {
		ec = d.NewExecContext("")
	}

	tool, ok := d.registry.Get(name)
	if !ok {
		// Caller-chosen names stay out of metric labels.
		d.metrics.ObserveTool(metrics.UnknownTool, metrics.OutcomeNotFound, time.Since(start))
		ec.Logger.Info("unknown tool requested", "tool", name)
		return nil, &NotFoundError{Name: name}
	}

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	out, err := tool.invoke(ctx, ec, input)
	elapsed := time.Since(start)

	var (
		verr   *schema.ValidationError
		outErr *errOutputInvalid
	)
	switch {
	case err == nil:
		d.metrics.ObserveTool(name, metrics.OutcomeOK, elapsed)
		ec.Logger.Debug("tool invoked", "tool", name, "duration", elapsed)
		return out, nil
	case errors.As(err, &outErr):
		d.metrics.ObserveTool(name, metrics.OutcomeInvalidOutput, elapsed)
		ec.Logger.Error("tool produced invalid output", "tool", name, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidOutput, name, outErr.err)
	case errors.As(err, &verr):
		d.metrics.ObserveTool(name, metrics.OutcomeInvalidInput, elapsed)
		ec.Logger.Info("tool input rejected", "tool", name, "error", err)
		return nil, err
	default:
		d.metrics.ObserveTool(name, metrics.OutcomeError, elapsed)
		ec.Logger.Warn("tool failed", "tool", name, "error", err, "duration", elapsed)
		return nil, err
	}
}
