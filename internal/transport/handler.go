package transport

import (
	"context"
	"sync/atomic"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// noopHandler is the minimal client-side protocol Handler the Runtime hands
// to mcp.NewClient. The Runtime never receives server-initiated sampling,
// elicitation or roots requests (it is a pure tool-invocation client), so
// every capability answers with an empty/unsupported result rather than
// wiring a local LLM or UI the way a full MCP host would.
type noopHandler struct {
	nextID int64
}

func newNoopHandler() *noopHandler { return &noopHandler{} }

func (h *noopHandler) LastRequestID() jsonrpc.RequestId {
	return jsonrpc.RequestId(atomic.LoadInt64(&h.nextID))
}

func (h *noopHandler) NextRequestID() jsonrpc.RequestId {
	return jsonrpc.RequestId(atomic.AddInt64(&h.nextID, 1))
}

func (h *noopHandler) Init(ctx context.Context, capabilities *schema.ClientCapabilities) {}

func (h *noopHandler) Implements(method string) bool { return false }

func (h *noopHandler) ListRoots(ctx context.Context, p *jsonrpc.TypedRequest[*schema.ListRootsRequest]) (*schema.ListRootsResult, *jsonrpc.Error) {
	return &schema.ListRootsResult{Roots: []schema.Root{}}, nil
}

func (h *noopHandler) Elicit(ctx context.Context, p *jsonrpc.TypedRequest[*schema.ElicitRequest]) (*schema.ElicitResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("elicitation not supported", nil)
}

func (h *noopHandler) CreateMessage(ctx context.Context, p *jsonrpc.TypedRequest[*schema.CreateMessageRequest]) (*schema.CreateMessageResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewMethodNotFound("sampling not supported", nil)
}

func (h *noopHandler) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	return nil
}

func (h *noopHandler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {}

func (h *noopHandler) ProtocolVersion() string { return "2025-06-18" }
