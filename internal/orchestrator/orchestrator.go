// Package orchestrator implements the Connect Orchestrator (C7): the state
// machine that turns a registered definition into a live, authorized
// connection, promoting a definition to OAuth at most once when a plain
// connection attempt comes back Unauthorized.
package orchestrator

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/model"
	"github.com/viant/mcporter/internal/transport"
)

// maxOAuthAttempts bounds the connect loop: once this many attempts
// (counting the first, possibly pre-promotion attempt) have come back
// Unauthorized, the loop gives up and surfaces the last error.
const maxOAuthAttempts = 3

// OAuthProvider performs the interactive or silent-refresh OAuth handshake
// for a server and returns a bearer token to present on the next connect
// attempt. Implemented by internal/oauthsession.
type OAuthProvider interface {
	Authorize(ctx context.Context, def model.ServerDefinition) (token string, err error)
}

// dialFunc matches transport.Dial's signature; the Orchestrator calls
// through this field rather than the package function directly so tests can
// substitute a fake transport instead of spawning real processes. It is used
// only for stdio definitions, which have no fallback transport to try.
type dialFunc func(ctx context.Context, def model.ServerDefinition, opts transport.Options) (transport.Conn, error)

// dialHTTPFunc matches transport.DialHTTPKind's signature. The Orchestrator
// calls through this field twice for an HTTP definition when S1's
// streamable attempt fails for a reason other than Unauthorized: once for
// model.HTTPStreamable, once for model.HTTPSSE.
type dialHTTPFunc func(ctx context.Context, def model.ServerDefinition, kind model.HTTPTransportKind, opts transport.Options) (transport.Conn, error)

// Orchestrator drives §7's S0-S5 connect state machine: Dispatch ->
// TryStreamable -> (non-auth failure? -> FallbackSSE) ->
// (Unauthorized? -> MaybePromote -> OAuthHandshake) -> retry -> Connected,
// or Failed once attempts are exhausted.
type Orchestrator struct {
	registry *model.Registry
	oauth    OAuthProvider
	logger   *log.Logger

	dialStdio dialFunc
	dialHTTP  dialHTTPFunc

	promotedMu sync.Mutex
	promoted   map[string]bool
}

// New returns an Orchestrator over registry, using oauth for any definition
// that is or becomes OAuth-authorized.
func New(registry *model.Registry, oauth OAuthProvider, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		registry:  registry,
		oauth:     oauth,
		logger:    logger,
		dialStdio: transport.Dial,
		dialHTTP:  transport.DialHTTPKind,
		promoted:  map[string]bool{},
	}
}

// Connect resolves name to a definition and dials it, promoting to OAuth and
// retrying on an Unauthorized response per the rules above. skipCache
// controls nothing here directly; it is threaded through by the pool, which
// calls Connect as its Dialer.
func (o *Orchestrator) Connect(ctx context.Context, name string) (transport.Conn, error) {
	return o.connect(ctx, name, maxOAuthAttempts)
}

// ConnectEphemeral dials name the same way as Connect, but with
// maxOAuthAttempts forced to zero: an Unauthorized response still promotes
// an eligible ad-hoc definition for future calls, but the call fails
// immediately with the original Unauthorized error instead of asking the
// OAuthProvider for a token and retrying. A definition that already has
// auth: oauth still gets its token from OAuthProvider.Authorize before the
// first attempt, and Authorize runs the interactive flow when no usable
// cached or refreshed token exists. The caller is responsible for never
// pooling the returned connection.
func (o *Orchestrator) ConnectEphemeral(ctx context.Context, name string) (transport.Conn, error) {
	return o.connect(ctx, name, 0)
}

func (o *Orchestrator) connect(ctx context.Context, name string, maxAttempts int) (transport.Conn, error) {
	def, ok := o.registry.Get(name)
	if !ok {
		return nil, mcperrors.New(mcperrors.UnknownServer, name, nil)
	}

	attempts := 0
	for {
		var bearerToken string
		if def.Auth == model.AuthOAuth {
			if def.Command.Kind == model.CommandStdio {
				return nil, mcperrors.New(mcperrors.OAuthUnsupportedByTransport, name, nil)
			}
			token, err := o.oauth.Authorize(ctx, def)
			if err != nil {
				return nil, err
			}
			bearerToken = token
		}

		conn, err := o.tryConnect(ctx, def, transport.Options{BearerToken: bearerToken, Logger: o.logger})
		if err == nil {
			return conn, nil
		}

		if !IsUnauthorized(err) {
			return nil, err
		}

		if def.Auth != model.AuthOAuth {
			if def.Command.Kind == model.CommandStdio {
				return nil, mcperrors.New(mcperrors.OAuthUnsupportedByTransport, name, err)
			}
			if !def.Source.IsAdhoc() {
				// Automatic OAuth promotion is reserved for definitions
				// synthesized at the CLI/API boundary; anything read from a
				// config file must declare auth: oauth explicitly.
				return nil, err
			}
			if o.alreadyPromoted(name) {
				// Promotion already happened once for this server; a second
				// Unauthorized on a still-unpromoted-looking definition means
				// the registry was reset underneath us. Surface the error
				// rather than promoting again from a stale view.
				return nil, err
			}
			tokenCacheDir := def.TokenCacheDir
			if tokenCacheDir == "" {
				if home, herr := os.UserHomeDir(); herr == nil {
					tokenCacheDir = filepath.Join(home, ".mcporter", name)
				}
			}
			promotedDef := def.WithOAuthPromotion(tokenCacheDir)
			o.registry.Replace(name, promotedDef)
			o.markPromoted(name)
			def = promotedDef
		}

		attempts++
		if attempts >= maxAttempts {
			return nil, err
		}
	}
}

// tryConnect performs one S1/S2 attempt: stdio definitions dial and
// initialize once, HTTP definitions try streamable first and fall back to
// SSE only when the streamable attempt fails for a reason other than
// Unauthorized (an Unauthorized result is definitive either way and must
// propagate straight back to the promote-or-retry logic above).
func (o *Orchestrator) tryConnect(ctx context.Context, def model.ServerDefinition, opts transport.Options) (transport.Conn, error) {
	if def.Command.Kind == model.CommandStdio {
		return dialAndInitialize(ctx, def, opts, o.dialStdio)
	}

	conn, err := dialAndInitializeHTTP(ctx, def, model.HTTPStreamable, opts, o.dialHTTP)
	if err == nil || IsUnauthorized(err) {
		return conn, err
	}
	return dialAndInitializeHTTP(ctx, def, model.HTTPSSE, opts, o.dialHTTP)
}

func dialAndInitialize(ctx context.Context, def model.ServerDefinition, opts transport.Options, dial dialFunc) (transport.Conn, error) {
	conn, err := dial(ctx, def, opts)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Initialize(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func dialAndInitializeHTTP(ctx context.Context, def model.ServerDefinition, kind model.HTTPTransportKind, opts transport.Options, dial dialHTTPFunc) (transport.Conn, error) {
	conn, err := dial(ctx, def, kind, opts)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Initialize(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (o *Orchestrator) alreadyPromoted(name string) bool {
	o.promotedMu.Lock()
	defer o.promotedMu.Unlock()
	return o.promoted[name]
}

func (o *Orchestrator) markPromoted(name string) {
	o.promotedMu.Lock()
	defer o.promotedMu.Unlock()
	o.promoted[name] = true
}
