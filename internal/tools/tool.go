// ABOUTME: Typed tool definitions with reflected input and output schemas
// ABOUTME: Handlers only ever see validated input and only return validated output

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/rpc"
	"github.com/2389/toolgate/internal/schema"
)

// Definition is the public description of a tool.
type Definition struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	InputSchema  json.RawMessage `json:"inputSchema"`
	OutputSchema json.RawMessage `json:"outputSchema"`
	Idempotent   bool            `json:"idempotent"`
}

// ExecContext carries per-invocation dependencies. One invocation owns it.
type ExecContext struct {
	Config        *config.Config
	Backend       rpc.Backend
	Now           func() time.Time
	CorrelationID string
	Logger        *slog.Logger
}

// HandlerFunc implements a tool over its typed input and output.
type HandlerFunc[In, Out any] func(ctx context.Context, ec *ExecContext, in In) (Out, error)

// Tool is a registered, schema-checked operation.
type Tool struct {
	def    Definition
	input  *schema.Schema
	output *schema.Schema
	call   func(ctx context.Context, ec *ExecContext, raw json.RawMessage) (any, error)
}

// New builds a tool whose schemas are reflected from In and Out.
// It panics if a reflected schema does not compile, which is a programming error.
func New[In, Out any](name, description string, idempotent bool, h HandlerFunc[In, Out]) *Tool {
	var (
		in  In
		out Out
	)
	inRaw := schema.Reflect(in)
	outRaw := schema.Reflect(out)

	return &Tool{
		def: Definition{
			Name:         name,
			Description:  description,
			InputSchema:  inRaw,
			OutputSchema: outRaw,
			Idempotent:   idempotent,
		},
		input:  schema.MustCompile(name+" input", inRaw),
		output: schema.MustCompile(name+" output", outRaw),
		call: func(ctx context.Context, ec *ExecContext, raw json.RawMessage) (any, error) {
			var typed In
			if err := json.Unmarshal(raw, &typed); err != nil {
				return nil, fmt.Errorf("decode %s input: %w", name, err)
			}
			return h(ctx, ec, typed)
		},
	}
}

// Name returns the tool's registered name.
func (t *Tool) Name() string { return t.def.Name }

// Definition returns the tool's public description.
func (t *Tool) Definition() Definition { return t.def }

// errOutputInvalid marks output that failed its schema, so the dispatcher can
// tell handler bugs apart from caller mistakes.
type errOutputInvalid struct{ err error }

func (e *errOutputInvalid) Error() string { return e.err.Error() }
func (e *errOutputInvalid) Unwrap() error { return e.err }

// invoke validates raw, runs the handler and validates what it returns.
func (t *Tool) invoke(ctx context.Context, ec *ExecContext, raw json.RawMessage) (json.RawMessage, error) {
	if err := t.input.Validate(raw); err != nil {
		return nil, err
	}

	result, err := t.call(ctx, ec, raw)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s output: %w", t.def.Name, err)
	}
	if err := t.output.Validate(encoded); err != nil {
		return nil, &errOutputInvalid{err: err}
	}
	return encoded, nil
}
