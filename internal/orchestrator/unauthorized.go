package orchestrator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/viant/mcporter/internal/mcperrors"
)

// unauthorizedPattern is the tolerant fallback used when a transport failure
// carries no typed sentinel: transports vary in how bluntly they report
// auth failures (a bare HTTP status in the message, a JSON-RPC error string,
// a child process's stderr line), so a single regex is kept here instead of
// scattering string matches across every transport.
var unauthorizedPattern = regexp.MustCompile(`(?i)\b(401|403)\b|unauthorized|invalid[_-]?token|forbidden`)

// IsUnauthorized reports whether err represents an authorization failure
// that might be resolved by an OAuth handshake. It is the Runtime's single
// classifier: every component asks this function rather than inspecting
// errors ambiently on its own.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var e *mcperrors.Error
	if errors.As(err, &e) && e.Kind == mcperrors.Unauthorized {
		return true
	}
	return unauthorizedPattern.MatchString(strings.ToLower(err.Error()))
}

// IsReconnectable reports whether err plausibly clears on a fresh dial
// (transport hiccups, timeouts) as opposed to a definition-level problem
// that retrying the exact same connection attempt will not fix.
func IsReconnectable(err error) bool {
	if err == nil {
		return false
	}
	var e *mcperrors.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case mcperrors.TransportFailure, mcperrors.Timeout, mcperrors.Unauthorized:
			return true
		}
		return false
	}
	return IsUnauthorized(err)
}
