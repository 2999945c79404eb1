package importcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntry_PrefersURLOverAlternateSpellings(t *testing.T) {
	data := []byte(`{"base_url":"https://a","url":"https://b"}`)
	entry, err := DecodeEntry(data, "/base")
	require.NoError(t, err)
	assert.Equal(t, "https://b", entry.URL)
}

func TestDecodeEntry_FallsBackToBaseURLWhenURLAbsent(t *testing.T) {
	data := []byte(`{"baseUrl":"https://a"}`)
	entry, err := DecodeEntry(data, "/base")
	require.NoError(t, err)
	assert.Equal(t, "https://a", entry.URL)
}

func TestDecodeEntry_BearerTokenBecomesAuthorizationHeader(t *testing.T) {
	data := []byte(`{"url":"https://a","bearerToken":"secret"}`)
	entry, err := DecodeEntry(data, "/base")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", entry.Headers["Authorization"])
}

func TestDecodeEntry_CommandFallsBackToExecutable(t *testing.T) {
	data := []byte(`{"executable":"npx","args":["-y","server"]}`)
	entry, err := DecodeEntry(data, "/base")
	require.NoError(t, err)
	assert.Equal(t, "npx", entry.Command)
	assert.Equal(t, "/base", entry.BaseDir)
}

func TestDecodeEntry_InvalidJSON(t *testing.T) {
	_, err := DecodeEntry([]byte(`not json`), "/base")
	assert.Error(t, err)
}

func TestParseCodexTOML_BuildsBearerHeader(t *testing.T) {
	data := []byte(`
[mcp_servers.github]
url = "https://mcp.github.com"
bearerToken = "tok"

[mcp_servers.local]
command = "npx"
args = ["-y", "server"]
`)
	entries, err := parseCodexTOML(data, "/base")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}

	assert.Equal(t, "Bearer tok", byName["github"].Raw.Headers["Authorization"])
	assert.Equal(t, "npx", byName["local"].Raw.Command)
}

func TestParseMCPServersJSON_FallsBackToLegacyServersKey(t *testing.T) {
	data := []byte(`{"servers":{"slack":{"url":"https://slack.example.com"}}}`)
	entries, err := parseMCPServersJSON(data, "/base")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "slack", entries[0].Name)
}
