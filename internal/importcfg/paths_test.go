package importcfg

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidatePaths_Cursor(t *testing.T) {
	paths := CandidatePaths(KindCursor, "/proj", "/home/user")
	assert.Contains(t, paths, filepath.Join("/proj", ".cursor", "mcp.json"))
}

func TestCandidatePaths_Codex_RootBeforeHome(t *testing.T) {
	paths := CandidatePaths(KindCodex, "/proj", "/home/user")
	assert.Equal(t, []string{
		filepath.Join("/proj", ".codex", "config.toml"),
		filepath.Join("/home/user", ".codex", "config.toml"),
	}, paths)
}

func TestCandidatePaths_UnknownKind(t *testing.T) {
	assert.Nil(t, CandidatePaths(Kind("unknown"), "/proj", "/home/user"))
}

func TestUserConfigDir_LinuxHonorsXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config", userConfigDir("/home/user"))
}

func TestUserConfigDir_LinuxFallsBackToDotConfig(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("dotfile fallback is only exercised on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Equal(t, filepath.Join("/home/user", ".config"), userConfigDir("/home/user"))
}
