package defload

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/mcporter/internal/model"
)

// Normalize converts a RawEntry plus its contributed name/source into a
// ServerDefinition. Normalization is idempotent: normalizing an already
// normalized entry's raw form a second time yields the same definition.
func Normalize(name string, raw model.RawEntry, source model.Source) model.ServerDefinition {
	def := model.ServerDefinition{
		Name:             name,
		Description:      raw.Description,
		Env:              raw.Env,
		TokenCacheDir:    raw.TokenCacheDir,
		ClientName:       raw.ClientName,
		OAuthRedirectURL: raw.OAuthRedirectURL,
		Source:           source,
	}
	if strings.EqualFold(raw.Auth, string(model.AuthOAuth)) {
		def.Auth = model.AuthOAuth
		if def.TokenCacheDir == "" {
			if home, err := os.UserHomeDir(); err == nil {
				def.TokenCacheDir = filepath.Join(home, ".mcporter", name)
			}
		}
	}

	if strings.TrimSpace(raw.URL) != "" {
		headers := map[string]string{}
		for k, v := range raw.Headers {
			headers[k] = v
		}
		if _, ok := headerLookup(headers, "Accept"); !ok {
			headers["Accept"] = "application/json, text/event-stream"
		}
		httpKind := model.HTTPStreamable
		if strings.EqualFold(raw.TransportType, string(model.HTTPSSE)) || strings.HasSuffix(strings.TrimRight(raw.URL, "/"), "/sse") {
			httpKind = model.HTTPSSE
		}
		def.Command = model.Command{
			Kind:     model.CommandHTTP,
			URL:      raw.URL,
			Headers:  headers,
			HTTPKind: httpKind,
		}
		return def
	}

	cwd := raw.BaseDir
	def.Command = model.Command{
		Kind:    model.CommandStdio,
		Program: raw.Command,
		Args:    splitArgs(raw.RawArgs),
		Cwd:     cwd,
	}
	return def
}

// headerLookup performs a case-insensitive header name lookup.
func headerLookup(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// splitArgs implements the args string|array|single-string normalization
// rule: an array of strings is used verbatim; a single string is split on
// whitespace honoring single/double shell quoting; nil/absent yields no args.
func splitArgs(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return shellSplit(v)
	default:
		return nil
	}
}

// shellSplit splits s on whitespace, honoring single and double quotes so
// that `--name "hello world"` yields ["--name", "hello world"].
func shellSplit(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote byte
		started bool
	)
	flush := func() {
		if started {
			out = append(out, cur.String())
			cur.Reset()
			started = false
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			inQuote = c
			started = true
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		default:
			cur.WriteByte(c)
			started = true
		}
	}
	flush()
	return out
}
