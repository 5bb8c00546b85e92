// Package gateway serves the tool registry over HTTP.
//
// # Routes
//
//   - GET /health: liveness, mode and server time. Unauthenticated.
//   - GET /tools: every tool with its input and output JSON Schemas.
//   - POST /invoke: {tool, input} dispatched through tools.Dispatcher.
//   - POST /prompt: {prompt, params} rendered from the prompt registry.
//   - GET /resources?uri=protocol://id: resource lookup and listing.
//   - metrics.path and mcp.path when enabled.
//
// All routes except /health require a bearer token (see package auth). Every
// response carries CORS headers and an X-Correlation-Id, and errors are
// rendered as {"error", "correlationId"} with a status derived from the
// error's type.
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//	err = gw.Run(ctx)
//
// Run returns after a graceful shutdown, which also closes the idempotency store.
package gateway
