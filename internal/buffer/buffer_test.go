package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNegativeCapacity(t *testing.T) {
	_, err := New(-1)
	require.Error(t, err)
}

func TestPlaceAtAndReadSpan(t *testing.T) {
	b, err := New(64)
	require.NoError(t, err)

	require.NoError(t, b.PlaceAt(8, []byte("hello")))
	span, err := b.ReadSpan(8, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(span))
}

func TestPlaceAtOutOfBoundsFails(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)
	err = b.PlaceAt(4, []byte("too long"))
	assert.Error(t, err)
}

func TestCopyWithinOverlapping(t *testing.T) {
	b, err := New(16)
	require.NoError(t, err)
	require.NoError(t, b.PlaceAt(0, []byte("abcdefgh")))

	require.NoError(t, b.CopyWithin(2, 0, 8))
	span, err := b.ReadSpan(2, 8)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", string(span))
}

func TestZero(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)
	require.NoError(t, b.PlaceAt(0, []byte("abcdefgh")))
	require.NoError(t, b.Zero(0, 8))

	span, err := b.ReadSpan(0, 8)
	require.NoError(t, err)
	for _, c := range span {
		assert.Equal(t, byte(0), c)
	}
}

func TestDestroyDropsCapacity(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)
	b.Destroy()
	assert.Equal(t, int64(0), b.Capacity())
}

func TestReadSpanOutOfBounds(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)
	_, err = b.ReadSpan(4, 8)
	assert.Error(t, err)
}
