package reaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_AppendAndLines(t *testing.T) {
	rb := &RingBuffer{}
	rb.Append("line one")
	rb.Append("line two")
	assert.Equal(t, []string{"line one", "line two"}, rb.Lines())
}

func TestRingBuffer_EvictsOldestBeyondLimit(t *testing.T) {
	rb := &RingBuffer{}
	for i := 0; i < ringBufferLimit+10; i++ {
		rb.Append("line")
	}
	assert.Len(t, rb.Lines(), ringBufferLimit)
}

func TestRingBuffer_LinesReturnsASnapshotCopy(t *testing.T) {
	rb := &RingBuffer{}
	rb.Append("original")
	lines := rb.Lines()
	lines[0] = "mutated"
	assert.Equal(t, "original", rb.Lines()[0], "callers must not be able to mutate the buffer through the returned slice")
}
