package orchestrator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/mcporter/internal/mcperrors"
)

func TestIsUnauthorized_TypedSentinel(t *testing.T) {
	err := mcperrors.New(mcperrors.Unauthorized, "github", errors.New("nope"))
	assert.True(t, IsUnauthorized(err))
}

func TestIsUnauthorized_PlainStatusCode(t *testing.T) {
	assert.True(t, IsUnauthorized(errors.New("request failed: HTTP 401")))
	assert.True(t, IsUnauthorized(errors.New("server responded 403 Forbidden")))
}

func TestIsUnauthorized_TextualForms(t *testing.T) {
	assert.True(t, IsUnauthorized(errors.New("Unauthorized")))
	assert.True(t, IsUnauthorized(errors.New("invalid_token")))
	assert.True(t, IsUnauthorized(errors.New("invalid-token supplied")))
	assert.True(t, IsUnauthorized(errors.New("access forbidden")))
}

func TestIsUnauthorized_UnrelatedErrorsDoNotMatch(t *testing.T) {
	assert.False(t, IsUnauthorized(errors.New("connection refused")))
	assert.False(t, IsUnauthorized(nil))
}

func TestIsUnauthorized_DoesNotMatchUnrelatedNumbers(t *testing.T) {
	assert.False(t, IsUnauthorized(errors.New("retrying after 4010ms")))
}

func TestIsReconnectable_TransportAndTimeoutAreReconnectable(t *testing.T) {
	assert.True(t, IsReconnectable(mcperrors.New(mcperrors.TransportFailure, "x", errors.New("io"))))
	assert.True(t, IsReconnectable(mcperrors.New(mcperrors.Timeout, "x", errors.New("deadline"))))
	assert.True(t, IsReconnectable(mcperrors.New(mcperrors.Unauthorized, "x", errors.New("401"))))
}

func TestIsReconnectable_ConfigErrorsAreNot(t *testing.T) {
	assert.False(t, IsReconnectable(mcperrors.New(mcperrors.ConfigParseError, "x", errors.New("bad json"))))
	assert.False(t, IsReconnectable(mcperrors.New(mcperrors.UnknownServer, "x", nil)))
}
