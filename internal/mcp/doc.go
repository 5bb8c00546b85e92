// Package mcp serves the tool registry over the Model Context Protocol.
//
// Tools are listed with the same input and output schemas as GET /tools, and
// tools/call runs through the shared Dispatcher, so validation, the wallet
// transfer protocol and metrics behave exactly as on POST /invoke. Tool
// failures are reported as error results rather than JSON-RPC errors.
//
// The endpoint uses the stateless Streamable HTTP transport and is mounted by
// the gateway behind authentication.
package mcp
