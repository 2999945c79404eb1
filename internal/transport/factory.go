package transport

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/model"
	"github.com/viant/mcporter/internal/placeholder"
)

// Options carries the pieces of transport construction that vary per call
// rather than per definition: the bearer token for an OAuth-promoted server
// (resolved by the Orchestrator just before dialing) and a logger for the
// stdio reaper.
type Options struct {
	BearerToken string
	Logger      *log.Logger
}

// Dial resolves def's env/headers against the process environment and
// constructs the matching Conn. Env and header resolution happen here,
// late, rather than at load time, so a placeholder failure surfaces at
// connect rather than at startup for servers that are never used.
func Dial(ctx context.Context, def model.ServerDefinition, opts Options) (Conn, error) {
	switch def.Command.Kind {
	case model.CommandStdio:
		return dialStdioDef(ctx, def, opts)
	case model.CommandHTTP:
		return dialHTTPDef(ctx, def, opts)
	default:
		return nil, mcperrors.Newf(mcperrors.TransportFailure, def.Name, "unrecognized command kind %q", def.Command.Kind)
	}
}

func dialStdioDef(ctx context.Context, def model.ServerDefinition, opts Options) (Conn, error) {
	resolvedEnv, err := placeholder.ResolveMap(def.Env, placeholder.OSLookup)
	if err != nil {
		return nil, wrapMissingEnv(def.Name, err)
	}

	env := os.Environ()
	for k, v := range resolvedEnv {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	return DialStdio(ctx, def.Name, def.Command.Program, def.Command.Args, def.Command.Cwd, env, opts.Logger)
}

func dialHTTPDef(ctx context.Context, def model.ServerDefinition, opts Options) (Conn, error) {
	kind := def.Command.HTTPKind
	if kind == "" {
		kind = model.HTTPStreamable
	}
	return DialHTTPKind(ctx, def, kind, opts)
}

// DialHTTPKind materializes def's HTTP transport as kind, ignoring
// def.Command.HTTPKind. The Connect Orchestrator calls this directly (rather
// than through Dial) to try streamable HTTP first and fall back to SSE on a
// non-auth failure, without needing a second definition just to flip the
// wire protocol.
func DialHTTPKind(ctx context.Context, def model.ServerDefinition, kind model.HTTPTransportKind, opts Options) (Conn, error) {
	resolvedHeaders, err := placeholder.ResolveMap(def.Command.Headers, placeholder.OSLookup)
	if err != nil {
		return nil, wrapMissingEnv(def.Name, err)
	}
	return DialHTTP(ctx, def.Name, string(kind), def.Command.URL, resolvedHeaders, opts.BearerToken)
}

func wrapMissingEnv(server string, err error) error {
	var e *mcperrors.Error
	if asError(err, &e) {
		e.Server = server
		return e
	}
	return mcperrors.New(mcperrors.MissingEnvVar, server, err)
}

// asError is a tiny local errors.As to avoid importing "errors" just for
// this one call site's pointer-to-pointer dance.
func asError(err error, target **mcperrors.Error) bool {
	if e, ok := err.(*mcperrors.Error); ok {
		*target = e
		return true
	}
	return false
}
