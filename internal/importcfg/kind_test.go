package importcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	assert.True(t, Valid("cursor"))
	assert.True(t, Valid("vscode"))
	assert.False(t, Valid("sublime"))
	assert.False(t, Valid(""))
}

func TestDefaultOrder_MatchesValidKinds(t *testing.T) {
	for _, k := range DefaultOrder {
		assert.True(t, Valid(string(k)))
	}
	assert.Len(t, DefaultOrder, 6)
}
