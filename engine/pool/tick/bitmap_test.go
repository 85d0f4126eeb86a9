package tick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlipRejectsMisaligned(t *testing.T) {
	r := newTestRegistry(t, 60)
	assert.ErrorIs(t, r.Flip(61), ErrMisalignedTick)
	assert.NoError(t, r.Flip(-120))
}

func TestFlipTogglesBit(t *testing.T) {
	r := newTestRegistry(t, 1)

	require.NoError(t, r.Flip(100))
	next, initialized := r.NextInitializedTickWithinOneWord(100, true)
	assert.True(t, initialized)
	assert.Equal(t, int64(100), next)

	require.NoError(t, r.Flip(100))
	_, initialized = r.NextInitializedTickWithinOneWord(100, true)
	assert.False(t, initialized, "second flip clears the bit")
}

func TestNextInitializedTickLTE(t *testing.T) {
	r := newTestRegistry(t, 1)
	require.NoError(t, r.Flip(10))
	require.NoError(t, r.Flip(200))

	// Searching at an initialized tick finds itself.
	next, ok := r.NextInitializedTickWithinOneWord(200, true)
	assert.True(t, ok)
	assert.Equal(t, int64(200), next)

	// Searching between the two finds the lower one.
	next, ok = r.NextInitializedTickWithinOneWord(199, true)
	assert.True(t, ok)
	assert.Equal(t, int64(10), next)

	// Below everything in the word: word boundary, uninitialized.
	next, ok = r.NextInitializedTickWithinOneWord(9, true)
	assert.False(t, ok)
	assert.Equal(t, int64(0), next)
}

func TestNextInitializedTickGT(t *testing.T) {
	r := newTestRegistry(t, 1)
	require.NoError(t, r.Flip(10))
	require.NoError(t, r.Flip(200))

	// Strictly greater: starting at 10 skips itself.
	next, ok := r.NextInitializedTickWithinOneWord(10, false)
	assert.True(t, ok)
	assert.Equal(t, int64(200), next)

	next, ok = r.NextInitializedTickWithinOneWord(200, false)
	assert.False(t, ok)
	assert.Equal(t, int64(255), next, "empty remainder of the word")
}

func TestNextInitializedTickNegative(t *testing.T) {
	r := newTestRegistry(t, 1)
	require.NoError(t, r.Flip(-200))

	next, ok := r.NextInitializedTickWithinOneWord(-100, true)
	assert.True(t, ok)
	assert.Equal(t, int64(-200), next)

	// -300 sits in the previous word, so the first probe only reaches
	// that word's boundary; the next probe finds the tick.
	next, ok = r.NextInitializedTickWithinOneWord(-300, false)
	assert.False(t, ok)
	assert.Equal(t, int64(-257), next)

	next, ok = r.NextInitializedTickWithinOneWord(-257, false)
	assert.True(t, ok)
	assert.Equal(t, int64(-200), next)

	// A search below the only initialized tick stops at the word
	// boundary. Ticks -256..-1 share word -1.
	next, ok = r.NextInitializedTickWithinOneWord(-201, true)
	assert.False(t, ok)
	assert.Equal(t, int64(-256), next)
}

func TestNextInitializedTickWithSpacing(t *testing.T) {
	r := newTestRegistry(t, 60)
	require.NoError(t, r.Flip(-120))
	require.NoError(t, r.Flip(180))

	// Tick 0 opens word 0; the negative tick lives in word -1, reached on
	// the second probe.
	next, ok := r.NextInitializedTickWithinOneWord(0, true)
	assert.False(t, ok)
	assert.Equal(t, int64(0), next)

	next, ok = r.NextInitializedTickWithinOneWord(-60, true)
	assert.True(t, ok)
	assert.Equal(t, int64(-120), next)

	next, ok = r.NextInitializedTickWithinOneWord(0, false)
	assert.True(t, ok)
	assert.Equal(t, int64(180), next)

	// Unaligned probe ticks floor to the spacing grid.
	next, ok = r.NextInitializedTickWithinOneWord(-61, true)
	assert.True(t, ok)
	assert.Equal(t, int64(-120), next)
}

func TestNextInitializedTickStaysWithinWord(t *testing.T) {
	r := newTestRegistry(t, 1)
	require.NoError(t, r.Flip(300)) // word 1

	// From word 0 the search must not see into word 1.
	next, ok := r.NextInitializedTickWithinOneWord(10, false)
	assert.False(t, ok)
	assert.Equal(t, int64(255), next)

	// Continuing from the boundary reaches it on the next probe.
	next, ok = r.NextInitializedTickWithinOneWord(255, false)
	assert.True(t, ok)
	assert.Equal(t, int64(300), next)
}
