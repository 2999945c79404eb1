package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/reaper"
)

// stdioConn owns a spawned child process end to end: the pipes, the newline-
// delimited JSON-RPC request/response correlation, and (via *reaper.Child)
// the escalating termination sequence on Close.
type stdioConn struct {
	server string
	child  *reaper.Child
	stdin  io.WriteCloser

	nextID int64

	mu      sync.Mutex
	pending map[int64]chan rpcResponse
	readErr error
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// DialStdio spawns command/args under dir with env and returns a live Conn.
// Stderr is always piped into the reaper's ring buffer, never inherited.
func DialStdio(ctx context.Context, server, command string, args []string, dir string, env []string, logger *log.Logger) (Conn, error) {
	if logger == nil {
		logger = log.Default()
	}
	child, stdin, stdout, err := reaper.Start(ctx, command, args, dir, env, logger)
	if err != nil {
		return nil, mcperrors.New(mcperrors.TransportFailure, server, err)
	}

	c := &stdioConn{
		server:  server,
		child:   child,
		stdin:   stdin,
		pending: make(map[int64]chan rpcResponse),
	}
	go c.readLoop(stdout)
	return c, nil
}

func (c *stdioConn) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue // not a response we recognize; ignore (e.g. a notification)
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
	c.mu.Lock()
	c.readErr = fmt.Errorf("stdio transport for %q closed", c.server)
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- rpcResponse{Error: &rpcError{Message: c.readErr.Error()}}
	}
	c.mu.Unlock()
}

func (c *stdioConn) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	id := atomic.AddInt64(&c.nextID, 1)
	ch := make(chan rpcResponse, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		return mcperrors.New(mcperrors.TransportFailure, c.server, err)
	}
	data = append(data, '\n')
	if _, err := c.stdin.Write(data); err != nil {
		return mcperrors.New(mcperrors.TransportFailure, c.server, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return mcperrors.New(mcperrors.Timeout, c.server, ctx.Err())
	case resp := <-ch:
		if resp.Error != nil {
			return mcperrors.New(mcperrors.ToolFault, c.server, fmt.Errorf("%s (code=%d)", resp.Error.Message, resp.Error.Code))
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return mcperrors.New(mcperrors.TransportFailure, c.server, err)
		}
		return nil
	}
}

func (c *stdioConn) Initialize(ctx context.Context) (*schema.InitializeResult, error) {
	params := map[string]interface{}{
		"protocolVersion": "2025-06-18",
		"clientInfo":      map[string]string{"name": "mcporter", "version": "0.1.0"},
		"capabilities":    map[string]interface{}{},
	}
	var result schema.InitializeResult
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return nil, err
	}
	_ = c.call(ctx, "notifications/initialized", nil, nil)
	return &result, nil
}

func (c *stdioConn) ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error) {
	params := map[string]interface{}{}
	if cursor != nil {
		params["cursor"] = *cursor
	}
	var result schema.ListToolsResult
	if err := c.call(ctx, "tools/list", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *stdioConn) CallTool(ctx context.Context, p *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	var result schema.CallToolResult
	if err := c.call(ctx, "tools/call", p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *stdioConn) ListResources(ctx context.Context, cursor *string) (*schema.ListResourcesResult, error) {
	params := map[string]interface{}{}
	if cursor != nil {
		params["cursor"] = *cursor
	}
	var result schema.ListResourcesResult
	if err := c.call(ctx, "resources/list", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *stdioConn) Close() error {
	_ = c.stdin.Close()
	return c.child.Close()
}

// StderrTail exposes the child's buffered stderr for diagnostics, e.g. when
// surfacing a TransportFailure to the caller.
func (c *stdioConn) StderrTail() []string { return c.child.StderrLines() }
