// Package mcperrors defines the Runtime's error kinds as typed sentinels
// usable with errors.Is/errors.As, instead of ambient string matching.
package mcperrors

import "fmt"

// Kind identifies one of the Runtime's recognized error categories.
type Kind string

const (
	UnknownServer               Kind = "unknown_server"
	DuplicateServer             Kind = "duplicate_server"
	ConfigParseError            Kind = "config_parse_error"
	ImportParseError            Kind = "import_parse_error"
	MissingEnvVar               Kind = "missing_env_var"
	Unauthorized                Kind = "unauthorized"
	OAuthUnsupportedByTransport Kind = "oauth_unsupported_by_transport"
	TransportFailure            Kind = "transport_failure"
	Timeout                     Kind = "timeout"
	ToolFault                   Kind = "tool_fault"
)

// Error is the Runtime's typed error envelope. Callers should use errors.As
// to recover the Kind and Server rather than matching on Error().
type Error struct {
	Kind   Kind
	Server string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	if e.Server != "" {
		return fmt.Sprintf("mcporter: %s: %s: %v", e.Kind, e.Server, e.Err)
	}
	return fmt.Sprintf("mcporter: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target carries the same Kind, so callers can write
// errors.Is(err, &mcperrors.Error{Kind: mcperrors.Unauthorized}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind wrapping err.
func New(kind Kind, server string, err error) *Error {
	return &Error{Kind: kind, Server: server, Err: err}
}

// Newf constructs an *Error with a formatted message as its cause.
func Newf(kind Kind, server, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Server: server, Err: fmt.Errorf(format, args...)}
}
