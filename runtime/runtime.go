// Package runtime is the Runtime Façade (C9): the public entry point that
// wires config loading, the connection pool, the connect orchestrator and
// OAuth session together behind a small set of operations (listServers,
// getDefinition, registerDefinition, listTools, callTool, listResources,
// connect, close).
package runtime

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/viant/mcp-protocol/schema"

	"github.com/viant/mcporter/internal/defload"
	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/model"
	"github.com/viant/mcporter/internal/oauthsession"
	"github.com/viant/mcporter/internal/orchestrator"
	"github.com/viant/mcporter/internal/pool"
	"github.com/viant/mcporter/internal/transport"
)

// Re-exported data types: this package is the one source of truth callers
// import, even though the shapes live in internal/model so the internal
// component packages can share them without importing this package back.
type (
	ServerDefinition  = model.ServerDefinition
	Command           = model.Command
	CommandKind       = model.CommandKind
	Source            = model.Source
	SourceKind        = model.SourceKind
	AuthKind          = model.AuthKind
	HTTPTransportKind = model.HTTPTransportKind
)

const (
	CommandHTTP  = model.CommandHTTP
	CommandStdio = model.CommandStdio

	SourceLocal  = model.SourceLocal
	SourceImport = model.SourceImport
	AdhocPath    = model.AdhocPath

	AuthNone  = model.AuthNone
	AuthOAuth = model.AuthOAuth

	HTTPStreamable = model.HTTPStreamable
	HTTPSSE        = model.HTTPSSE
)

// Re-exported error vocabulary.
type (
	Error     = mcperrors.Error
	ErrorKind = mcperrors.Kind
)

const (
	UnknownServer               = mcperrors.UnknownServer
	DuplicateServer             = mcperrors.DuplicateServer
	ConfigParseError            = mcperrors.ConfigParseError
	ImportParseError            = mcperrors.ImportParseError
	MissingEnvVar               = mcperrors.MissingEnvVar
	Unauthorized                = mcperrors.Unauthorized
	OAuthUnsupportedByTransport = mcperrors.OAuthUnsupportedByTransport
	TransportFailure            = mcperrors.TransportFailure
	Timeout                     = mcperrors.Timeout
	ToolFault                   = mcperrors.ToolFault
)

// ToolResult normalizes a tool call's outcome: IsError reports whether the
// server reported a tool-level failure (as opposed to a transport error,
// which surfaces as a Go error instead), Content carries the raw content
// blocks, and Raw is the untouched protocol result for callers that need it.
type ToolResult struct {
	IsError bool
	Content []schema.Content
	Raw     *schema.CallToolResult
}

const (
	defaultListTimeout = 30 * time.Second
	defaultCallTimeout = 30 * time.Second
)

// Options configures New.
type Options struct {
	ConfigPath string
	Root       string
	Logger     *log.Logger
	// OAuthPrompt receives the authorization URL when a browser cannot be
	// launched. Defaults to os.Stderr.
	OAuthPrompt io.Writer
}

// Runtime is the façade's DI bundle: a registry, a connection pool, the
// orchestrator that mediates OAuth promotion, and the OAuth provider. It
// carries no package-level mutable state; two Runtimes never interfere.
type Runtime struct {
	registry *model.Registry
	pool     *pool.Pool
	orch     *orchestrator.Orchestrator
	logger   *log.Logger

	listTimeout time.Duration
	callTimeout time.Duration

	idleMu   sync.Mutex
	lastUsed map[string]time.Time
	stopIdle chan struct{}
}

// New loads the primary config and its imports and returns a ready Runtime.
func New(ctx context.Context, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	promptOut := opts.OAuthPrompt
	if promptOut == nil {
		promptOut = os.Stderr
	}

	registry, err := defload.Load(ctx, defload.Options{
		ConfigPath: opts.ConfigPath,
		Root:       opts.Root,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	oauthProvider := oauthsession.New(promptOut, logger)
	orch := orchestrator.New(registry, oauthProvider, logger)
	p := pool.New(orch.Connect)

	return &Runtime{
		registry:    registry,
		pool:        p,
		orch:        orch,
		logger:      logger,
		listTimeout: timeoutFromEnv("MCPORTER_LIST_TIMEOUT", defaultListTimeout),
		callTimeout: timeoutFromEnv("MCPORTER_CALL_TIMEOUT", defaultCallTimeout),
		lastUsed:    map[string]time.Time{},
	}, nil
}

func timeoutFromEnv(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

// ListServers returns every registered server name, sorted.
func (r *Runtime) ListServers() []string {
	names := r.registry.Names()
	sort.Strings(names)
	return names
}

// GetDefinitions returns a snapshot of every registered definition.
func (r *Runtime) GetDefinitions() map[string]ServerDefinition {
	return r.registry.All()
}

// GetDefinition returns name's definition, if registered.
func (r *Runtime) GetDefinition(name string) (ServerDefinition, bool) {
	return r.registry.Get(name)
}

// RegisterOptions configures RegisterDefinition.
type RegisterOptions struct {
	// Overwrite replaces an already-registered definition with the same
	// name instead of failing with DuplicateServer. Defaults to false.
	Overwrite bool
}

// RegisterDefinition adds an ad-hoc definition created at the API boundary
// (not read from any config file). It fails with DuplicateServer if name is
// already registered and opts.Overwrite is false.
func (r *Runtime) RegisterDefinition(def ServerDefinition, opts RegisterOptions) error {
	def.Source = Source{Kind: SourceLocal, Path: AdhocPath}
	if !r.registry.Register(def, opts.Overwrite) {
		return mcperrors.New(mcperrors.DuplicateServer, def.Name, nil)
	}
	return nil
}

// ConnectOptions configures Connect and ListTools.
type ConnectOptions struct {
	// AutoAuthorize allows the connect path to promote an ad-hoc definition
	// to OAuth and run the interactive authorization handshake on an
	// Unauthorized response. When false, the connection is never pooled
	// (skipCache) and an Unauthorized response is not retried
	// (maxOAuthAttempts=0): it still records the promotion in the registry
	// for later calls but fails this one immediately. A definition that
	// already has auth: oauth still obtains its token through the OAuth
	// provider first, which runs the interactive flow when no usable cached
	// or refreshed token exists. Defaults to true.
	AutoAuthorize *bool
}

func (o ConnectOptions) autoAuthorize() bool {
	return o.AutoAuthorize == nil || *o.AutoAuthorize
}

// Connect warms the pooled connection for name without performing any
// operation over it, surfacing a connect-time failure immediately rather
// than on the first real call.
func (r *Runtime) Connect(ctx context.Context, name string, opts ConnectOptions) error {
	if !opts.autoAuthorize() {
		conn, err := r.orch.ConnectEphemeral(ctx, name)
		if err != nil {
			return err
		}
		return disposeConnection(conn, r.logger, name)
	}
	_, err := r.pool.Get(ctx, name, false)
	if err == nil {
		r.touch(name)
	}
	return err
}

// Close tears down the pooled connection for name, if any.
func (r *Runtime) Close(name string) error {
	r.idleMu.Lock()
	delete(r.lastUsed, name)
	r.idleMu.Unlock()
	return r.pool.Close(name)
}

// CloseAll tears down every pooled connection. Intended for shutdown.
func (r *Runtime) CloseAll() error {
	return r.pool.CloseAll()
}

// ListTools lists name's tools, paginating via cursor. With
// opts.AutoAuthorize false, the call never joins the pool and does not
// retry after an Unauthorized response (see ConnectOptions for definitions
// that already use OAuth); the connection it dials is disposed before
// ListTools returns, regardless of outcome.
func (r *Runtime) ListTools(ctx context.Context, name string, cursor *string, opts ConnectOptions) (*schema.ListToolsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.listTimeout)
	defer cancel()

	if !opts.autoAuthorize() {
		conn, err := r.orch.ConnectEphemeral(ctx, name)
		if err != nil {
			return nil, err
		}
		defer disposeConnection(conn, r.logger, name)
		result, err := conn.ListTools(ctx, cursor)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, mcperrors.New(mcperrors.Timeout, name, err)
		}
		return result, err
	}

	conn, err := r.pool.Get(ctx, name, false)
	if err != nil {
		return nil, err
	}
	result, err := conn.ListTools(ctx, cursor)
	return result, r.onTimeout(name, err)
}

// ListResources lists name's resources, paginating via cursor.
func (r *Runtime) ListResources(ctx context.Context, name string, cursor *string) (*schema.ListResourcesResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.listTimeout)
	defer cancel()

	conn, err := r.pool.Get(ctx, name, false)
	if err != nil {
		return nil, err
	}
	result, err := conn.ListResources(ctx, cursor)
	return result, r.onTimeout(name, err)
}

// CallTool invokes tool toolName on server name with the given arguments.
func (r *Runtime) CallTool(ctx context.Context, name, toolName string, arguments map[string]interface{}) (*ToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	conn, err := r.pool.Get(ctx, name, false)
	if err != nil {
		return nil, err
	}
	raw, err := conn.CallTool(ctx, &schema.CallToolRequestParams{Name: toolName, Arguments: arguments})
	if err = r.onTimeout(name, err); err != nil {
		return nil, err
	}
	result := &ToolResult{Raw: raw}
	if raw != nil {
		result.Content = raw.Content
		result.IsError = raw.IsError
	}
	return result, nil
}

// onTimeout converts a context deadline into a mcperrors.Timeout and, per
// the façade's timeout contract, closes the connection so a hung server is
// not retried against the same stuck transport.
func (r *Runtime) onTimeout(name string, err error) error {
	if err == nil {
		r.touch(name)
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		_ = r.pool.Close(name)
		return mcperrors.New(mcperrors.Timeout, name, err)
	}
	return err
}

// disposeConnection tears down an ephemeral (never-pooled) connection in a
// finally-style scope: close failures are logged, never returned, so they
// cannot mask the caller's real result or error. There is no separate OAuth
// session object to close in this package's model — the OAuth provider
// persists each token to its cache file synchronously inside Authorize, so
// closing the connection is the entire disposal.
func disposeConnection(conn transport.Conn, logger *log.Logger, name string) error {
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		logger.Printf("mcporter: warning: failed to close ephemeral connection for %q: %v", name, err)
	}
	return nil
}

func (r *Runtime) touch(name string) {
	r.idleMu.Lock()
	r.lastUsed[name] = time.Now()
	r.idleMu.Unlock()
}

// StartIdleReaper launches a background goroutine that closes pooled
// connections idle for longer than 3*interval, returning a stop function.
// This is additive: it never changes what Close(name) means, only calls it
// automatically for connections nothing has used in a while.
func (r *Runtime) StartIdleReaper(ctx context.Context, interval time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.closeIdleOlderThan(3 * interval)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

func (r *Runtime) closeIdleOlderThan(age time.Duration) {
	cutoff := time.Now().Add(-age)
	r.idleMu.Lock()
	var idle []string
	for name, t := range r.lastUsed {
		if t.Before(cutoff) {
			idle = append(idle, name)
		}
	}
	r.idleMu.Unlock()
	for _, name := range idle {
		if err := r.Close(name); err != nil {
			r.logger.Printf("mcporter: idle reaper: failed to close %q: %v", name, err)
		}
	}
}
