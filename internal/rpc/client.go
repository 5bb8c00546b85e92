// ABOUTME: HTTP client for the backend database RPCs and edge functions
// ABOUTME: Posts JSON with service-key auth and decodes JSON replies

// Package rpc calls the backend's database RPCs and edge functions.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/2389/toolgate/internal/config"
)

// maxResponseBytes caps how much of a backend reply is read.
const maxResponseBytes = 1 << 20

// ErrNotConfigured is returned when a call is attempted without a backend URL.
var ErrNotConfigured = errors.New("backend is not configured")

// Backend is the collaborator that owns persistence and fund movement.
type Backend interface {
	// CallRPC invokes a database procedure with named parameters.
	CallRPC(ctx context.Context, name string, params any, out any) error
	// CallFunction invokes an edge function with a JSON body and extra headers.
	CallFunction(ctx context.Context, name string, body any, headers http.Header, out any) error
}

// Error is a non-2xx reply from the backend.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// Client talks to a Supabase-style backend: RPCs under /rest/v1/rpc and
// functions under /functions/v1.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

// New creates a client from the backend configuration.
func New(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		http:       &http.Client{Timeout: timeout},
	}
}

// CallRPC posts params to /rest/v1/rpc/<name>.
func (c *Client) CallRPC(ctx context.Context, name string, params any, out any) error {
	return c.post(ctx, "/rest/v1/rpc/"+name, params, nil, out)
}

// CallFunction posts body to /functions/v1/<name>.
func (c *Client) CallFunction(ctx context.Context, name string, body any, headers http.Header, out any) error {
	return c.post(ctx, "/functions/v1/"+name, body, headers, out)
}

func (c *Client) post(ctx context.Context, path string, body any, headers http.Header, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceKey != "" {
		req.Header.Set("apikey", c.serviceKey)
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}
