package runtime

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mcporter/internal/mcperrors"
	"github.com/viant/mcporter/internal/model"
	"github.com/viant/mcporter/internal/oauthsession"
	"github.com/viant/mcporter/internal/orchestrator"
	"github.com/viant/mcporter/internal/pool"
)

func newTestRuntime() *Runtime {
	registry := model.NewRegistry()
	logger := log.New(testDiscard{}, "", 0)
	oauthProvider := oauthsession.New(testDiscard{}, logger)
	orch := orchestrator.New(registry, oauthProvider, logger)
	return &Runtime{
		registry: registry,
		pool:     pool.New(orch.Connect),
		orch:     orch,
		logger:   logger,
		lastUsed: map[string]time.Time{},
	}
}

type testDiscard struct{}

func (testDiscard) Write(p []byte) (int, error) { return len(p), nil }

func TestRegisterDefinition_RejectsDuplicateByDefault(t *testing.T) {
	r := newTestRuntime()
	def := ServerDefinition{Name: "github", Command: Command{Kind: CommandHTTP, URL: "https://x"}}

	require.NoError(t, r.RegisterDefinition(def, RegisterOptions{}))
	err := r.RegisterDefinition(def, RegisterOptions{})

	var target *mcperrors.Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, mcperrors.DuplicateServer, target.Kind)
}

func TestRegisterDefinition_OverwriteReplaces(t *testing.T) {
	r := newTestRuntime()
	original := ServerDefinition{Name: "github", Command: Command{Kind: CommandHTTP, URL: "https://x"}}
	replacement := ServerDefinition{Name: "github", Command: Command{Kind: CommandHTTP, URL: "https://y"}}

	require.NoError(t, r.RegisterDefinition(original, RegisterOptions{}))
	require.NoError(t, r.RegisterDefinition(replacement, RegisterOptions{Overwrite: true}))

	def, ok := r.GetDefinition("github")
	require.True(t, ok)
	assert.Equal(t, "https://y", def.Command.URL)
}

func TestRegisterDefinition_AlwaysMarksSourceAdhoc(t *testing.T) {
	r := newTestRuntime()
	def := ServerDefinition{Name: "github", Command: Command{Kind: CommandHTTP, URL: "https://x"}, Source: Source{Kind: SourceImport, Path: "/etc/mcporter.json"}}

	require.NoError(t, r.RegisterDefinition(def, RegisterOptions{}))

	stored, ok := r.GetDefinition("github")
	require.True(t, ok)
	assert.True(t, stored.Source.IsAdhoc(), "registerDefinition always synthesizes an ad-hoc source, regardless of the caller's input")
}

func TestConnectOptions_AutoAuthorizeDefaultsTrue(t *testing.T) {
	assert.True(t, ConnectOptions{}.autoAuthorize())

	disabled := false
	assert.False(t, ConnectOptions{AutoAuthorize: &disabled}.autoAuthorize())

	enabled := true
	assert.True(t, ConnectOptions{AutoAuthorize: &enabled}.autoAuthorize())
}

func TestConnect_UnknownServerSurfacesRegardlessOfAutoAuthorize(t *testing.T) {
	r := newTestRuntime()

	err := r.Connect(context.Background(), "ghost", ConnectOptions{})
	var target *mcperrors.Error
	require.True(t, errors.As(err, &target))
	assert.Equal(t, mcperrors.UnknownServer, target.Kind)

	disabled := false
	err = r.Connect(context.Background(), "ghost", ConnectOptions{AutoAuthorize: &disabled})
	require.True(t, errors.As(err, &target))
	assert.Equal(t, mcperrors.UnknownServer, target.Kind)
}

func TestDisposeConnection_NilIsNoop(t *testing.T) {
	assert.NoError(t, disposeConnection(nil, log.New(testDiscard{}, "", 0), "github"))
}
