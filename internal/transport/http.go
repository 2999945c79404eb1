package transport

import (
	"context"

	"github.com/viant/mcp"
	mcpclient "github.com/viant/mcp/client"
	"github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/model"
)

// httpConn wraps the vendored MCP client for streamable-HTTP and SSE
// servers, which spawn no process and so need no reaper integration.
type httpConn struct {
	server  string
	client  mcpclient.Interface
	reqOpts []mcpclient.RequestOption
}

// DialHTTP constructs either a streamable-HTTP or an SSE client for server,
// selected by kind (model.HTTPStreamable or model.HTTPSSE). The two are
// genuinely distinct wire clients in the vendored library, not a shared
// transport with a hint: the Connect Orchestrator relies on that to try one
// and fall back to the other when a server only speaks the legacy protocol.
func DialHTTP(ctx context.Context, server, kind, url string, headers map[string]string, bearerToken string) (Conn, error) {
	transportType := "streaming"
	if kind == string(model.HTTPSSE) {
		transportType = "sse"
	}

	opts := &mcp.ClientOptions{
		Name: server,
		Transport: mcp.ClientTransport{
			Type: transportType,
			ClientTransportHTTP: mcp.ClientTransportHTTP{
				URL:     url,
				Headers: headers,
			},
		},
	}

	var reqOpts []mcpclient.RequestOption
	if bearerToken != "" {
		reqOpts = append(reqOpts, mcpclient.WithAuthToken(bearerToken))
	}
	// Interceptor-based authorization (auth.NewAuthorizer) is left for a
	// transport that needs mid-flight token refresh driven by the client
	// itself; the Orchestrator already owns the retry after a 401 at a
	// higher level.

	client, err := mcp.NewClient(newNoopHandler(), opts)
	if err != nil {
		return nil, mcperrors.New(mcperrors.TransportFailure, server, err)
	}

	return &httpConn{server: server, client: client, reqOpts: reqOpts}, nil
}

func (c *httpConn) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	result, err := c.client.Initialize(ctx)
	if err != nil {
		return nil, mcperrors.New(mcperrors.TransportFailure, c.server, err)
	}
	return result, nil
}

func (c *httpConn) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	result, err := c.client.ListTools(ctx, cursor, c.reqOpts...)
	if err != nil {
		return nil, mcperrors.New(mcperrors.TransportFailure, c.server, err)
	}
	return result, nil
}

func (c *httpConn) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	result, err := c.client.CallTool(ctx, params, c.reqOpts...)
	if err != nil {
		return nil, mcperrors.New(mcperrors.ToolFault, c.server, err)
	}
	return result, nil
}

func (c *httpConn) ListResources(ctx context.Context, cursor *string) (*schema.ListResourcesResult, error) {
	result, err := c.client.ListResources(ctx, cursor, c.reqOpts...)
	if err != nil {
		return nil, mcperrors.New(mcperrors.TransportFailure, c.server, err)
	}
	return result, nil
}

func (c *httpConn) Close() error {
	if closer, ok := c.client.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
