package freespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFitReturnsNoneWhenTooSmall(t *testing.T) {
	idx := New()
	idx.Insert(Extent{Offset: 0, Size: 16})

	_, ok := idx.FindFit(32)
	assert.False(t, ok)
}

func TestFindFitPicksSmallestQualifyingBucket(t *testing.T) {
	idx := New()
	idx.Insert(Extent{Offset: 0, Size: 16})
	idx.Insert(Extent{Offset: 100, Size: 64})
	idx.Insert(Extent{Offset: 200, Size: 32})

	ext, ok := idx.FindFit(20)
	require.True(t, ok)
	assert.Equal(t, int64(32), ext.Size, "32 is the smallest bucket >= 20")
}

func TestFindFitTieBreakLastInWins(t *testing.T) {
	idx := New()
	idx.Insert(Extent{Offset: 0, Size: 32})
	idx.Insert(Extent{Offset: 64, Size: 32})

	ext, ok := idx.FindFit(16)
	require.True(t, ok)
	assert.Equal(t, int64(64), ext.Offset, "last-inserted extent in the bucket must win")
}

func TestRemoveExactMatchOnly(t *testing.T) {
	idx := New()
	idx.Insert(Extent{Offset: 0, Size: 32})
	idx.Insert(Extent{Offset: 64, Size: 32})

	assert.False(t, idx.Remove(Extent{Offset: 128, Size: 32}), "no extent at offset 128")
	assert.True(t, idx.Remove(Extent{Offset: 64, Size: 32}))
	assert.Equal(t, int64(32), idx.TotalFreeBytes())
	assert.Equal(t, 1, idx.TotalFreeBlocks())
}

func TestAllocateSplitsRemainder(t *testing.T) {
	idx := New()
	idx.Insert(Extent{Offset: 0, Size: 64})

	offset, ok := idx.Allocate(24, 8)
	require.True(t, ok)
	assert.Equal(t, int64(0), offset)

	// remainder 40 bytes >= align(8), must reappear as a free extent.
	ext, ok := idx.FindFit(1)
	require.True(t, ok)
	assert.Equal(t, int64(24), ext.Offset)
	assert.Equal(t, int64(40), ext.Size)
}

func TestAllocateConsumesWholeExtentWhenRemainderTooSmall(t *testing.T) {
	idx := New()
	idx.Insert(Extent{Offset: 0, Size: 32})

	offset, ok := idx.Allocate(28, 8)
	require.True(t, ok)
	assert.Equal(t, int64(0), offset)
	assert.Equal(t, int64(0), idx.TotalFreeBytes(), "remainder of 4 < align, whole extent consumed")
}

func TestCoalesceMergesAdjacentExtentsOnly(t *testing.T) {
	idx := New()
	idx.Insert(Extent{Offset: 0, Size: 16})
	idx.Insert(Extent{Offset: 16, Size: 16})
	idx.Insert(Extent{Offset: 64, Size: 8})

	idx.Coalesce()

	assert.Equal(t, 2, idx.TotalFreeBlocks())
	assert.Equal(t, int64(40), idx.TotalFreeBytes())

	merged, ok := idx.FindFit(32)
	require.True(t, ok)
	assert.Equal(t, int64(0), merged.Offset)
	assert.Equal(t, int64(32), merged.Size)
}

func TestCoalesceThenNoExtentsAreAdjacent(t *testing.T) {
	idx := New()
	for i := int64(0); i < 5; i++ {
		idx.Insert(Extent{Offset: i * 8, Size: 8})
	}
	idx.Coalesce()

	all := idx.all()
	require.Len(t, all, 1)
	assert.Equal(t, int64(40), all[0].Size)
}

func TestClearDropsEverything(t *testing.T) {
	idx := New()
	idx.Insert(Extent{Offset: 0, Size: 16})
	idx.Insert(Extent{Offset: 32, Size: 8})

	idx.Clear()
	assert.Equal(t, int64(0), idx.TotalFreeBytes())
	assert.Equal(t, 0, idx.TotalFreeBlocks())
	_, ok := idx.FindFit(1)
	assert.False(t, ok)
}

func TestInsertRemoveBytesAndBlocksStayConsistent(t *testing.T) {
	idx := New()
	extents := []Extent{{0, 8}, {8, 16}, {24, 8}, {32, 32}}
	var total int64
	for _, e := range extents {
		idx.Insert(e)
		total += e.Size
	}
	assert.Equal(t, total, idx.TotalFreeBytes())
	assert.Equal(t, len(extents), idx.TotalFreeBlocks())

	require.True(t, idx.Remove(extents[1]))
	total -= extents[1].Size
	assert.Equal(t, total, idx.TotalFreeBytes())
	assert.Equal(t, len(extents)-1, idx.TotalFreeBlocks())
}
