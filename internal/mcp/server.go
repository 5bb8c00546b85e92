// ABOUTME: Model Context Protocol transport for the tool registry, built on mcp-go
// ABOUTME: tools/list and tools/call are served by the same Dispatcher as POST /invoke

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/2389/toolgate/internal/correlation"
	"github.com/2389/toolgate/internal/tools"
)

// ServerName is advertised in the initialize handshake.
const ServerName = "toolgate"

// Server exposes a Dispatcher's tools over MCP.
type Server struct {
	dispatcher *tools.Dispatcher
	mcp        *server.MCPServer
	http       *server.StreamableHTTPServer
	logger     *slog.Logger
}

// NewServer registers every tool in the dispatcher's registry.
func NewServer(dispatcher *tools.Dispatcher, version string, logger *slog.Logger) *Server {
	s := &Server{
		dispatcher: dispatcher,
		mcp: server.NewMCPServer(ServerName, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		logger: logger.With("component", "mcp"),
	}

	for _, def := range dispatcher.Registry().List() {
		s.mcp.AddTool(toolFor(def), s.handler(def.Name))
	}

	s.http = server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// Handler returns the Streamable HTTP endpoint.
func (s *Server) Handler() http.Handler { return s.http }

func toolFor(def tools.Definition) mcpgo.Tool {
	t := mcpgo.NewToolWithRawSchema(def.Name, def.Description, def.InputSchema)
	t.RawOutputSchema = def.OutputSchema
	if def.Idempotent {
		idempotent := true
		t.Annotations.IdempotentHint = &idempotent
	}
	return t
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		ctx, id := correlation.Ensure(ctx)

		input, err := rawArguments(req.GetRawArguments())
		if err != nil {
			return mcpgo.NewToolResultError(err.Error()), nil
		}

		out, err := s.dispatcher.Dispatch(ctx, name, input, s.dispatcher.NewExecContext(id))
		if err != nil {
			if errors.Is(err, tools.ErrInvalidOutput) {
				s.logger.Error("tool call failed", "tool", name, "correlation_id", id, "error", err)
			}
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		return mcpgo.NewToolResultStructured(out, string(out)), nil
	}
}

func rawArguments(args any) (json.RawMessage, error) {
	switch v := args.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}
