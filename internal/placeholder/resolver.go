// Package placeholder resolves ${VAR}, ${VAR:-default} and $env:VAR tokens
// against process environment. Resolution is a single pass: substituted
// values are never rescanned for further placeholders.
package placeholder

import (
	"os"
	"strings"

	"github.com/viant/mcporter/internal/mcperrors"
)

// OSLookup resolves against the real process environment.
func OSLookup(name string) (string, bool) { return os.LookupEnv(name) }

// Lookup returns the value of name and whether it is set (mirrors os.LookupEnv).
type Lookup func(name string) (string, bool)

// Resolve expands all recognized placeholder forms in s using lookup.
// A literal "$" is written as "$$". An unset ${NAME} with no default fails
// with a MissingEnvVar error; ${NAME:-default} always succeeds, using the
// literal default (even if empty) whenever NAME is unset or set to empty.
func Resolve(s string, lookup Lookup) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '$' {
			out.WriteByte(c)
			i++
			continue
		}
		// "$$" => literal "$"
		if i+1 < len(s) && s[i+1] == '$' {
			out.WriteByte('$')
			i += 2
			continue
		}
		// "${NAME}" or "${NAME:-default}"
		if i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				// Unterminated token: treat literally, no substitution attempted.
				out.WriteByte(c)
				i++
				continue
			}
			body := s[i+2 : i+2+end]
			name, def, hasDefault := splitDefault(body)
			val, ok := lookup(name)
			switch {
			case ok && (val != "" || !hasDefault):
				out.WriteString(val)
			case hasDefault:
				out.WriteString(def)
			default:
				return "", mcperrors.Newf(mcperrors.MissingEnvVar, "", "missing environment variable %q", name)
			}
			i += 2 + end + 1
			continue
		}
		// "$env:NAME" — raw read, missing yields empty string.
		if strings.HasPrefix(s[i:], "$env:") {
			rest := s[i+5:]
			n := scanName(rest)
			if n > 0 {
				name := rest[:n]
				val, _ := lookup(name)
				out.WriteString(val)
				i += 5 + n
				continue
			}
		}
		// Bare "$" not matching any known form: emit literally.
		out.WriteByte(c)
		i++
	}
	return out.String(), nil
}

// splitDefault splits "NAME" or "NAME:-default" into its parts.
func splitDefault(body string) (name, def string, hasDefault bool) {
	idx := strings.Index(body, ":-")
	if idx < 0 {
		return body, "", false
	}
	return body[:idx], body[idx+2:], true
}

// scanName returns the length of a valid environment-variable-like
// identifier prefix of s (letters, digits, underscore; must not start with
// a digit).
func scanName(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		isAlpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isAlpha && !(isDigit && n > 0) {
			break
		}
		n++
	}
	return n
}

// ResolveMap resolves every value in m using lookup, returning a new map.
// Keys are passed through unchanged.
func ResolveMap(m map[string]string, lookup Lookup) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		resolved, err := Resolve(v, lookup)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}
