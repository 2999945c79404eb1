// Package defload implements the Definition Loader (C3): primary config
// resolution, import walking with first-wins merge, local overlay, and
// normalization into the Runtime's Registry.
package defload

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/viant/afs"

	"github.com/viant/mcporter/internal/importcfg"
	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/model"
)

// Options configures Load.
type Options struct {
	// ConfigPath, if non-empty, is used verbatim (explicit path) and a parse
	// failure is fatal rather than warn-and-continue.
	ConfigPath string
	// Root is the project root used for <root>-relative candidate paths.
	// Defaults to the process working directory.
	Root string
	// FS is the afs.Service used for all file access; defaults to afs.New().
	FS afs.Service
	// Logger receives the single "config parse failed, using empty
	// configuration" warning for implicit config files. Defaults to the
	// standard library logger.
	Logger *log.Logger
}

// primaryDoc is the §6 primary config file JSON shape.
type primaryDoc struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
	Imports    []string                   `json:"imports"`
}

// warnOnce is scoped per Load call (no package-level global), per the
// DESIGN NOTES prohibition on process-wide mutable state.
type warnOnce struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (w *warnOnce) once(key string, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen == nil {
		w.seen = map[string]bool{}
	}
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	fn()
}

// Load resolves the primary config file, walks imports in order with
// first-wins merge, overlays local entries, and returns a populated
// Registry.
func Load(ctx context.Context, opts Options) (*model.Registry, error) {
	fs := opts.FS
	if fs == nil {
		fs = afs.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	root := opts.Root
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		}
	}
	home, _ := os.UserHomeDir()

	warn := &warnOnce{}

	path, explicit := resolvePrimaryPath(opts.ConfigPath, root, home)

	doc, docPath, err := loadPrimaryDoc(ctx, fs, path, explicit, warn, logger)
	if err != nil {
		return nil, err
	}

	registry := model.NewRegistry()

	order := importOrder(doc.Imports)
	for _, kind := range order {
		entries, err := importcfg.Read(ctx, fs, kind, root, home)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			def := Normalize(e.Name, e.Raw, model.Source{Kind: model.SourceImport, Path: e.SourcePath})
			registry.InsertIfAbsent(def)
		}
	}

	baseDir := filepath.Dir(docPath)
	if docPath == "" {
		baseDir = root
	}
	for name, raw := range doc.MCPServers {
		entry, err := importcfg.DecodeEntry(raw, baseDir)
		if err != nil {
			return nil, mcperrors.New(mcperrors.ConfigParseError, name, err)
		}
		def := Normalize(name, entry, model.Source{Kind: model.SourceLocal, Path: docPath})
		registry.Register(def, true)
	}

	return registry, nil
}

// resolvePrimaryPath implements the §6 precedence: explicit path →
// MCPORTER_CONFIG → <root>/config/mcporter.json → <home>/.mcporter/mcporter.{json,jsonc}.
// Returns ("", false) when nothing is configured and no default exists.
func resolvePrimaryPath(explicit, root, home string) (path string, isExplicit bool) {
	if explicit != "" {
		return explicit, true
	}
	if env := os.Getenv("MCPORTER_CONFIG"); env != "" {
		return env, true
	}
	if root != "" {
		if p := filepath.Join(root, "config", "mcporter.json"); fileExists(p) {
			return p, false
		}
	}
	if home != "" {
		if p := filepath.Join(home, ".mcporter", "mcporter.json"); fileExists(p) {
			return p, false
		}
		if p := filepath.Join(home, ".mcporter", "mcporter.jsonc"); fileExists(p) {
			return p, false
		}
	}
	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func loadPrimaryDoc(ctx context.Context, fs afs.Service, path string, explicit bool, warn *warnOnce, logger *log.Logger) (primaryDoc, string, error) {
	if path == "" {
		return primaryDoc{}, "", nil
	}
	exists, _ := fs.Exists(ctx, path)
	if !exists {
		if explicit {
			return primaryDoc{}, "", mcperrors.New(mcperrors.ConfigParseError, "", fmt.Errorf("config file %q not found", path))
		}
		return primaryDoc{}, "", nil
	}
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		if explicit {
			return primaryDoc{}, "", mcperrors.New(mcperrors.ConfigParseError, "", err)
		}
		warn.once("read:"+path, func() {
			logger.Printf("mcporter: warning: failed to read config %q: %v; continuing with empty configuration", path, err)
		})
		return primaryDoc{}, "", nil
	}
	var doc primaryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		if explicit {
			return primaryDoc{}, "", mcperrors.New(mcperrors.ConfigParseError, "", err)
		}
		warn.once("parse:"+path, func() {
			logger.Printf("mcporter: warning: failed to parse config %q: %v; continuing with empty configuration", path, err)
		})
		return primaryDoc{}, "", nil
	}
	return doc, path, nil
}

// importOrder implements the §4.3 step 3 rule: empty declared list disables
// imports; a non-empty list is used then appended with any unmentioned
// default kinds; absence uses the default order.
func importOrder(declared []string) []importcfg.Kind {
	if declared == nil {
		return importcfg.DefaultOrder
	}
	if len(declared) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]importcfg.Kind, 0, len(declared))
	for _, k := range declared {
		if importcfg.Valid(k) && !seen[k] {
			out = append(out, importcfg.Kind(k))
			seen[k] = true
		}
	}
	for _, k := range importcfg.DefaultOrder {
		if !seen[string(k)] {
			out = append(out, k)
			seen[string(k)] = true
		}
	}
	return out
}
