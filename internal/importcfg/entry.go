// Package importcfg implements the Import Readers: parsers for the six
// known foreign editor configs (cursor, claude-code, claude-desktop,
// codex, windsurf, vscode), plus the shared JSON entry decoding used by both
// imports and the primary config file's own mcpServers map.
package importcfg

import (
	"encoding/json"

	"github.com/viant/mcporter/internal/model"
)

// wireEntry is the JSON shape accepted for one server entry, tolerant of the
// several key spellings different editors use.
type wireEntry struct {
	Description string `json:"description"`

	BaseURL   string `json:"baseUrl"`
	BaseURL2  string `json:"base_url"`
	URL       string `json:"url"`
	ServerURL string `json:"serverUrl"`
	ServerURL2 string `json:"server_url"`

	Command    string `json:"command"`
	Executable string `json:"executable"`

	Args interface{} `json:"args"`

	Env     map[string]string `json:"env"`
	Headers map[string]string `json:"headers"`

	Auth             string `json:"auth"`
	TokenCacheDir    string `json:"tokenCacheDir"`
	ClientName       string `json:"clientName"`
	OAuthRedirectURL string `json:"oauthRedirectUrl"`
	BearerToken      string `json:"bearerToken"`

	Lifecycle string `json:"lifecycle"`
	Type      string `json:"type"`
}

// DecodeEntry parses one server entry's JSON body into a RawEntry, applying
// the key-spelling precedence (url, then baseUrl, base_url, serverUrl,
// server_url) and stamping baseDir for later cwd defaulting.
func DecodeEntry(data []byte, baseDir string) (model.RawEntry, error) {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return model.RawEntry{}, err
	}
	return fromWire(w, baseDir), nil
}

func fromWire(w wireEntry, baseDir string) model.RawEntry {
	url := firstNonEmpty(w.URL, w.BaseURL, w.BaseURL2, w.ServerURL, w.ServerURL2)
	cmd := firstNonEmpty(w.Command, w.Executable)

	headers := w.Headers
	if w.BearerToken != "" {
		if headers == nil {
			headers = map[string]string{}
		}
		headers["Authorization"] = "Bearer " + w.BearerToken
	}

	return model.RawEntry{
		Description:      w.Description,
		URL:              url,
		Headers:          headers,
		Command:          cmd,
		RawArgs:          w.Args,
		Env:              w.Env,
		Auth:             w.Auth,
		TokenCacheDir:    w.TokenCacheDir,
		ClientName:       w.ClientName,
		OAuthRedirectURL: w.OAuthRedirectURL,
		TransportType:    w.Type,
		BaseDir:          baseDir,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
