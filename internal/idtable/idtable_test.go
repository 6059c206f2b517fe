package idtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupZeroIsSyntheticEmpty(t *testing.T) {
	tbl := New()
	rec, ok := tbl.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, Record{Offset: 0, Length: 0}, rec)
}

func TestRegisterMintsIncreasingIDs(t *testing.T) {
	tbl := New()
	a := tbl.Register(0, 5)
	b := tbl.Register(8, 3)
	assert.Equal(t, uint64(1), a)
	assert.Equal(t, uint64(2), b)
	assert.Greater(t, b, a)
}

func TestLookupUnregisterRoundTrip(t *testing.T) {
	tbl := New()
	id := tbl.Register(16, 7)

	rec, ok := tbl.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, int64(16), rec.Offset)
	assert.Equal(t, int64(7), rec.Length)

	rec, ok = tbl.Unregister(id)
	require.True(t, ok)
	assert.Equal(t, int64(16), rec.Offset)

	_, ok = tbl.Lookup(id)
	assert.False(t, ok, "unregistered id must be stale")
}

func TestUnregisterUnknownIDIsStale(t *testing.T) {
	tbl := New()
	_, ok := tbl.Unregister(12345)
	assert.False(t, ok)
}

func TestUnregisterZeroNeverSucceeds(t *testing.T) {
	tbl := New()
	_, ok := tbl.Unregister(0)
	assert.False(t, ok)
}

func TestRewriteOffset(t *testing.T) {
	tbl := New()
	id := tbl.Register(0, 4)
	require.True(t, tbl.RewriteOffset(id, 64))

	rec, ok := tbl.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, int64(64), rec.Offset)
}

func TestRewriteOffsetUnknownID(t *testing.T) {
	tbl := New()
	assert.False(t, tbl.RewriteOffset(999, 0))
}

func TestIterateAllVisitsEveryLiveRecordOnce(t *testing.T) {
	tbl := New()
	ids := map[uint64]bool{}
	for i := 0; i < 5; i++ {
		id := tbl.Register(int64(i*8), int64(i+1))
		ids[id] = false
	}

	visited := 0
	tbl.IterateAll(func(id uint64, rec Record) bool {
		_, known := ids[id]
		require.True(t, known)
		ids[id] = true
		visited++
		return true
	})

	assert.Equal(t, 5, visited)
	for id, seen := range ids {
		assert.True(t, seen, "id %d not visited", id)
	}
}

func TestClearPreservesCounter(t *testing.T) {
	tbl := New()
	a := tbl.Register(0, 1)
	tbl.Clear()
	assert.Equal(t, 0, tbl.Len())

	b := tbl.Register(8, 1)
	assert.Greater(t, b, a, "identifiers minted after Clear must never collide with earlier ones")
}

func TestWrapSkipsReservedZero(t *testing.T) {
	tbl := New()
	tbl.nextID = ^uint64(0) // next Register would overflow to 0

	id := tbl.Register(0, 1)
	assert.Equal(t, uint64(1), id, "overflow must wrap to 1, never to the reserved 0")
}
