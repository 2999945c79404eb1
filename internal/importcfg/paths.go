package importcfg

import (
	"os"
	"path/filepath"
	"runtime"
)

// CandidatePaths returns the ordered, per-OS list of files checked for kind,
// combining project-root locations with per-OS user config locations. The
// first candidate that exists and parses wins (see Read).
func CandidatePaths(kind Kind, root, home string) []string {
	userCfg := userConfigDir(home)

	switch kind {
	case KindCursor:
		return []string{
			filepath.Join(root, ".cursor", "mcp.json"),
			filepath.Join(userCfg, "Cursor", "User", "mcp.json"),
		}
	case KindClaudeCode:
		return []string{
			filepath.Join(root, ".claude", "mcp.json"),
			filepath.Join(home, ".claude", "mcp.json"),
			filepath.Join(home, ".claude.json"),
		}
	case KindClaudeDesktop:
		return []string{
			filepath.Join(userCfg, "Claude", "claude_desktop_config.json"),
		}
	case KindCodex:
		return []string{
			filepath.Join(root, ".codex", "config.toml"),
			filepath.Join(home, ".codex", "config.toml"),
		}
	case KindWindsurf:
		if runtime.GOOS == "windows" {
			return []string{filepath.Join(userCfg, "Codeium", "windsurf", "mcp_config.json")}
		}
		return []string{filepath.Join(home, ".codeium", "windsurf", "mcp_config.json")}
	case KindVSCode:
		return []string{
			filepath.Join(userCfg, "Code", "User", "mcp.json"),
			filepath.Join(userCfg, "Code - Insiders", "User", "mcp.json"),
		}
	default:
		return nil
	}
}

// userConfigDir mirrors os.UserConfigDir's per-OS convention but is rooted
// at an explicit home directory so it is deterministic under test.
func userConfigDir(home string) string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData
		}
		return filepath.Join(home, "AppData", "Roaming")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		return filepath.Join(home, ".config")
	}
}
