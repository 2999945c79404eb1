package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_InsertIfAbsent_FirstWins(t *testing.T) {
	r := NewRegistry()
	first := ServerDefinition{Name: "github", Description: "first"}
	second := ServerDefinition{Name: "github", Description: "second"}

	assert.True(t, r.InsertIfAbsent(first))
	assert.False(t, r.InsertIfAbsent(second))

	got, ok := r.Get("github")
	assert.True(t, ok)
	assert.Equal(t, "first", got.Description)
}

func TestRegistry_Register_OverwriteFlag(t *testing.T) {
	r := NewRegistry()
	r.Register(ServerDefinition{Name: "slack", Description: "v1"}, true)
	assert.False(t, r.Register(ServerDefinition{Name: "slack", Description: "v2"}, false))

	got, _ := r.Get("slack")
	assert.Equal(t, "v1", got.Description)

	assert.True(t, r.Register(ServerDefinition{Name: "slack", Description: "v2"}, true))
	got, _ = r.Get("slack")
	assert.Equal(t, "v2", got.Description)
}

func TestRegistry_Replace_NoopWhenAbsent(t *testing.T) {
	r := NewRegistry()
	r.Replace("ghost", ServerDefinition{Name: "ghost"})
	_, ok := r.Get("ghost")
	assert.False(t, ok)
}

func TestRegistry_Replace_SwapsExisting(t *testing.T) {
	r := NewRegistry()
	r.Register(ServerDefinition{Name: "jira", Auth: AuthNone}, true)
	r.Replace("jira", ServerDefinition{Name: "jira", Auth: AuthOAuth})

	got, _ := r.Get("jira")
	assert.Equal(t, AuthOAuth, got.Auth)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "server"
			r.InsertIfAbsent(ServerDefinition{Name: name})
			r.Get(name)
			r.Names()
		}(i)
	}
	wg.Wait()

	names := r.Names()
	assert.Len(t, names, 1)
}

func TestServerDefinition_WithOAuthPromotion(t *testing.T) {
	def := ServerDefinition{Name: "github", Auth: AuthNone}
	promoted := def.WithOAuthPromotion("/tmp/tokens/github")

	assert.Equal(t, AuthOAuth, promoted.Auth)
	assert.Equal(t, "/tmp/tokens/github", promoted.TokenCacheDir)
	assert.Equal(t, AuthNone, def.Auth, "original definition must not be mutated")
}

func TestSource_IsAdhoc(t *testing.T) {
	assert.True(t, Source{Kind: SourceLocal, Path: AdhocPath}.IsAdhoc())
	assert.False(t, Source{Kind: SourceLocal, Path: "/etc/mcporter.json"}.IsAdhoc())
	assert.False(t, Source{Kind: SourceImport, Path: AdhocPath}.IsAdhoc())
}
