// Package transport implements the Transport Factory (C5): it turns a
// normalized model.ServerDefinition, plus late-resolved headers/env, into a
// live Conn. Stdio servers are spawned and owned directly (see stdio.go) so
// the Process Reaper has a real PID and real stderr pipe to supervise;
// HTTP/SSE servers delegate to the vendored MCP client, which owns no
// process and therefore needs no reaper integration.
package transport

import (
	"context"

	"github.com/viant/mcp-protocol/schema"
)

// Conn is the minimal surface the Connection Pool and Orchestrator need from
// a live server connection, satisfied by both the stdio and HTTP/SSE paths.
type Conn interface {
	Initialize(ctx context.Context) (*schema.InitializeResult, error)
	ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error)
	CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error)
	ListResources(ctx context.Context, cursor *string) (*schema.ListResourcesResult, error)
	Close() error
}
