// ABOUTME: Tests for the MCP transport over the shared dispatcher
// ABOUTME: Covers tools/list schemas, successful calls, validation failures and HTTP transport

package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/correlation"
	"github.com/2389/toolgate/internal/logging"
	"github.com/2389/toolgate/internal/metrics"
	"github.com/2389/toolgate/internal/tools"
)

type greetInput struct {
	Name string `json:"name" jsonschema:"minLength=1"`
}

type greetOutput struct {
	Greeting      string `json:"greeting"`
	CorrelationID string `json:"correlationId"`
}

func newTestServer(t *testing.T, calls *int) *Server {
	t.Helper()

	greet := tools.New("greet", "Greet someone", true,
		func(_ context.Context, ec *tools.ExecContext, in greetInput) (greetOutput, error) {
			*calls++
			return greetOutput{Greeting: "hello " + in.Name, CorrelationID: ec.CorrelationID}, nil
		})
	registry, err := tools.NewRegistry(greet)
	require.NoError(t, err)

	d := tools.NewDispatcher(registry, config.Default(), nil, logging.NewNop(), metrics.New())
	return NewServer(d, "test", logging.NewNop())
}

type rpcResponse struct {
	Result struct {
		Tools []struct {
			Name         string          `json:"name"`
			InputSchema  json.RawMessage `json:"inputSchema"`
			OutputSchema json.RawMessage `json:"outputSchema"`
			Annotations  struct {
				IdempotentHint *bool `json:"idempotentHint"`
			} `json:"annotations"`
		} `json:"tools"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func handle(t *testing.T, ctx context.Context, s *Server, message string) rpcResponse {
	t.Helper()
	raw, err := json.Marshal(s.MCPServer().HandleMessage(ctx, json.RawMessage(message)))
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func TestToolsList(t *testing.T) {
	var calls int
	s := newTestServer(t, &calls)

	resp := handle(t, context.Background(), s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Nil(t, resp.Error)
	require.Len(t, resp.Result.Tools, 1)

	tool := resp.Result.Tools[0]
	assert.Equal(t, "greet", tool.Name)
	assert.Contains(t, string(tool.InputSchema), `"name"`)
	assert.Contains(t, string(tool.OutputSchema), `"greeting"`)
	require.NotNil(t, tool.Annotations.IdempotentHint)
	assert.True(t, *tool.Annotations.IdempotentHint)
}

func TestToolsCall(t *testing.T) {
	var calls int
	s := newTestServer(t, &calls)

	ctx := correlation.WithID(context.Background(), "corr-mcp")
	resp := handle(t, ctx, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"greet","arguments":{"name":"ada"}}}`)
	require.Nil(t, resp.Error)
	assert.False(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)

	var out greetOutput
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &out))
	assert.Equal(t, "hello ada", out.Greeting)
	assert.Equal(t, "corr-mcp", out.CorrelationID)
	assert.Equal(t, 1, calls)
}

func TestToolsCall_InvalidInput(t *testing.T) {
	var calls int
	s := newTestServer(t, &calls)

	resp := handle(t, context.Background(), s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"greet","arguments":{"name":""}}}`)
	require.Nil(t, resp.Error)
	assert.True(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	assert.Contains(t, resp.Result.Content[0].Text, "failed validation")
	assert.Equal(t, 0, calls, "handler must not run on invalid input")
}

func TestToolsCall_MissingArguments(t *testing.T) {
	var calls int
	s := newTestServer(t, &calls)

	resp := handle(t, context.Background(), s, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"greet"}}`)
	require.Nil(t, resp.Error)
	assert.True(t, resp.Result.IsError)
	assert.Equal(t, 0, calls)
}

func TestHandler_StreamableHTTP(t *testing.T) {
	var calls int
	s := newTestServer(t, &calls)

	body := `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"greet","arguments":{"name":"grace"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "hello grace")
	assert.Equal(t, 1, calls)
}
