// ABOUTME: HTTP handlers for health, tool listing, invocation, prompts and resources
// ABOUTME: Request bodies are size-capped and decoded strictly

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2389/toolgate/internal/config"
	"github.com/2389/toolgate/internal/correlation"
	"github.com/2389/toolgate/internal/prompts"
	"github.com/2389/toolgate/internal/resources"
	"github.com/2389/toolgate/internal/schema"
	"github.com/2389/toolgate/internal/tools"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string      `json:"status"`
	Mode      config.Mode `json:"mode"`
	Timestamp string      `json:"timestamp"`
}

// ToolsResponse is the body of GET /tools.
type ToolsResponse struct {
	Tools []tools.Definition `json:"tools"`
}

// InvokeRequest is the body of POST /invoke.
type InvokeRequest struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input,omitempty"`
}

// InvokeResponse is the body of a successful POST /invoke.
type InvokeResponse struct {
	Output    json.RawMessage `json:"output"`
	LatencyMs int64           `json:"latencyMs"`
}

// PromptRequest is the body of POST /prompt.
type PromptRequest struct {
	Prompt string          `json:"prompt"`
	Params json.RawMessage `json:"params,omitempty"`
}

// PromptResponse is the body of a successful POST /prompt.
type PromptResponse struct {
	Messages []prompts.Message `json:"messages"`
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Mode:      g.config.Mode,
		Timestamp: g.now().UTC().Format(time.RFC3339),
	})
}

func (g *Gateway) handleListTools(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, ToolsResponse{Tools: g.dispatcher.Registry().List()})
}

func (g *Gateway) handleInvoke(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req InvokeRequest
	if err := decodeBody(w, r, "invoke request", &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	if req.Tool == "" {
		g.writeError(w, r, &schema.ValidationError{Label: "invoke request", Problems: []string{"tool: is required"}})
		return
	}

	ec := g.dispatcher.NewExecContext(correlation.FromContext(r.Context()))
	out, err := g.dispatcher.Dispatch(r.Context(), req.Tool, req.Input, ec)
	if err != nil {
		g.writeError(w, r, err)
		return
	}

	g.writeJSON(w, http.StatusOK, InvokeResponse{
		Output:    out,
		LatencyMs: time.Since(start).Milliseconds(),
	})
}

func (g *Gateway) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := decodeBody(w, r, "prompt request", &req); err != nil {
		g.writeError(w, r, err)
		return
	}
	if req.Prompt == "" {
		g.writeError(w, r, &schema.ValidationError{Label: "prompt request", Problems: []string{"prompt: is required"}})
		return
	}

	messages, err := g.prompts.Render(r.Context(), req.Prompt, req.Params)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, PromptResponse{Messages: messages})
}

func (g *Gateway) handleResources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	uri := query.Get("uri")
	if uri == "" {
		g.writeError(w, r, fmt.Errorf("%w: uri query parameter is required", resources.ErrInvalidURI))
		return
	}
	query.Del("uri")

	result, err := g.resources.Resolve(r.Context(), uri, query)
	if err != nil {
		g.writeError(w, r, err)
		return
	}
	g.writeJSON(w, http.StatusOK, result)
}

// decodeBody reads a size-capped JSON body into v, rejecting unknown fields
// and trailing data.
func decodeBody(w http.ResponseWriter, r *http.Request, label string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes: %w", MaxRequestBodySize, err)
		}
		if errors.Is(err, io.EOF) {
			return &schema.ValidationError{Label: label, Problems: []string{"(root): request body is required"}}
		}
		return &schema.ValidationError{Label: label, Problems: []string{"(root): " + err.Error()}}
	}
	if dec.More() {
		return &schema.ValidationError{Label: label, Problems: []string{"(root): unexpected data after JSON body"}}
	}
	return nil
}
