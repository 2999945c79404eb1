package reaper

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_PipesStderrIntoRingBuffer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("spawns a POSIX shell")
	}
	child, stdin, stdout, err := Start(context.Background(), "/bin/sh", []string{"-c", "echo oops >&2; cat"}, "", nil, nil)
	require.NoError(t, err)
	defer stdin.Close()
	defer stdout.Close()

	assert.Eventually(t, func() bool {
		return len(child.StderrLines()) > 0
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, child.StderrLines(), "oops")

	require.NoError(t, child.Close())
	assert.False(t, child.Alive())
}

func TestStart_CloseReturnsPromptlyForACooperativeChild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("spawns a POSIX shell")
	}
	child, stdin, stdout, err := Start(context.Background(), "/bin/sh", []string{"-c", "cat"}, "", nil, nil)
	require.NoError(t, err)
	defer stdout.Close()

	// Closing stdin makes `cat` see EOF and exit on its own, so Close should
	// resolve inside the soft-close window without escalating to signals.
	require.NoError(t, stdin.Close())

	start := time.Now()
	require.NoError(t, child.Close())
	assert.Less(t, time.Since(start), SoftCloseTimeout+200*time.Millisecond)
}

func TestDescendants_EmptyForLeafProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ps-based tree walk is POSIX-only")
	}
	// The current test process itself is most likely a leaf with respect to
	// its own pid in the ps snapshot; this just exercises the parser without
	// asserting a specific process tree shape.
	_ = descendants(1)
}
