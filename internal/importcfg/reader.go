package importcfg

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/viant/afs"

	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/model"
)

// Entry is one imported server, tagged with its contributing name and the
// file path it was read from (for Source.Path diagnostics).
type Entry struct {
	Name       string
	Raw        model.RawEntry
	SourcePath string
}

// Read walks CandidatePaths(kind, root, home) in order and parses the first
// file that exists. A missing file is skipped silently; a file that exists
// but fails to parse surfaces an ImportParseError and stops the search for
// this kind (later candidates are not tried once one is found to exist).
func Read(ctx context.Context, fs afs.Service, kind Kind, root, home string) ([]Entry, error) {
	for _, path := range CandidatePaths(kind, root, home) {
		exists, err := fs.Exists(ctx, path)
		if err != nil || !exists {
			continue
		}
		data, err := fs.DownloadWithURL(ctx, path)
		if err != nil {
			return nil, mcperrors.New(mcperrors.ImportParseError, "", fmt.Errorf("read %s: %w", path, err))
		}
		baseDir := filepath.Dir(path)
		var entries []Entry
		if kind == KindCodex {
			entries, err = parseCodexTOML(data, baseDir)
		} else {
			entries, err = parseMCPServersJSON(data, baseDir)
		}
		if err != nil {
			return nil, mcperrors.New(mcperrors.ImportParseError, "", fmt.Errorf("parse %s: %w", path, err))
		}
		for i := range entries {
			entries[i].SourcePath = path
		}
		return entries, nil
	}
	return nil, nil
}

// mcpServersDoc is the JSON shape shared by cursor/claude-code/claude-desktop/
// windsurf/vscode: top-level "mcpServers" (preferred) or "servers" (legacy).
type mcpServersDoc struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
	Servers    map[string]json.RawMessage `json:"servers"`
}

func parseMCPServersJSON(data []byte, baseDir string) ([]Entry, error) {
	var doc mcpServersDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	servers := doc.MCPServers
	if len(servers) == 0 {
		servers = doc.Servers
	}
	out := make([]Entry, 0, len(servers))
	for name, raw := range servers {
		entry, err := DecodeEntry(raw, baseDir)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}
		out = append(out, Entry{Name: name, Raw: entry})
	}
	return out, nil
}

// codexDoc is the Codex config.toml shape: [mcp_servers.<name>] tables.
type codexDoc struct {
	MCPServers map[string]codexServer `toml:"mcp_servers"`
}

type codexServer struct {
	Description string            `toml:"description"`
	URL         string            `toml:"url"`
	Command     string            `toml:"command"`
	Args        []string          `toml:"args"`
	Env         map[string]string `toml:"env"`
	BearerToken string            `toml:"bearerToken"`
}

func parseCodexTOML(data []byte, baseDir string) ([]Entry, error) {
	var doc codexDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(doc.MCPServers))
	for name, srv := range doc.MCPServers {
		var headers map[string]string
		if srv.BearerToken != "" {
			headers = map[string]string{"Authorization": "Bearer " + srv.BearerToken}
		}
		out = append(out, Entry{
			Name: name,
			Raw: model.RawEntry{
				Description: srv.Description,
				URL:         srv.URL,
				Headers:     headers,
				Command:     srv.Command,
				RawArgs:     toInterfaceSlice(srv.Args),
				Env:         srv.Env,
				BaseDir:     baseDir,
			},
		})
	}
	return out, nil
}

func toInterfaceSlice(ss []string) []interface{} {
	if ss == nil {
		return nil
	}
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// NewFS returns the default afs.Service used to read config/import files.
func NewFS() afs.Service { return afs.New() }
