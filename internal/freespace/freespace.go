// Package freespace implements the Free-Space Index: the set of free
// extents inside a backing buffer, indexed by size for best-fit
// search, supporting insertion, removal of a specific extent, and
// full coalesce.
//
// The best-fit-from-bucket-tail policy and the size-bucket shape are
// grounded on the teacher's per-order free lists in hybrid/buddy.go
// (`blocks [MaxOrder+1][]*Block`, LIFO within an order); the ordered
// lookup over distinct sizes is grounded on the sorted-blocksizes /
// binary-search pattern in bnclabs-gostore/mem_arena.go
// (Blocksizes/SuitableSize), generalized from a fixed power-of-two
// ladder to an arbitrary, dynamically-grown set of size buckets.
package freespace

import (
	"sort"

	"github.com/pkg/errors"
)

// Extent is a free (offset, size) region inside the backing buffer.
type Extent struct {
	Offset int64
	Size   int64
}

// Index maintains free extents keyed by size, supporting O(log K)
// best-fit lookup (K = distinct sizes) and O(N log N) coalesce over
// all N extents.
type Index struct {
	buckets map[int64][]Extent // size -> stack of extents, last-in last
	keys    []int64            // sorted ascending, kept in sync with buckets
	bytes   int64
	blocks  int
}

// New returns an empty free-space index.
func New() *Index {
	return &Index{buckets: make(map[int64][]Extent)}
}

// TotalFreeBytes is the sum of sizes of all tracked extents.
func (idx *Index) TotalFreeBytes() int64 { return idx.bytes }

// TotalFreeBlocks is the number of tracked extents.
func (idx *Index) TotalFreeBlocks() int { return idx.blocks }

// Insert adds ext to the index. The first time a size is seen its key
// is inserted into the sorted key slice (binary search plus an O(K)
// shift); otherwise it's an O(1) append to the existing bucket's stack.
func (idx *Index) Insert(ext Extent) {
	bucket, exists := idx.buckets[ext.Size]
	if !exists {
		idx.insertKey(ext.Size)
	}
	idx.buckets[ext.Size] = append(bucket, ext)
	idx.bytes += ext.Size
	idx.blocks++
}

// Remove deletes the exact extent (matched on both offset and size).
// Reports false if no such extent is tracked.
func (idx *Index) Remove(ext Extent) bool {
	bucket, ok := idx.buckets[ext.Size]
	if !ok {
		return false
	}
	for i := len(bucket) - 1; i >= 0; i-- {
		if bucket[i].Offset == ext.Offset {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(idx.buckets, ext.Size)
				idx.removeKey(ext.Size)
			} else {
				idx.buckets[ext.Size] = bucket
			}
			idx.bytes -= ext.Size
			idx.blocks--
			return true
		}
	}
	return false
}

// FindFit returns some extent with size >= required without removing
// it: the smallest qualifying size bucket, last-inserted extent within
// that bucket. Reports ok=false if no extent is large enough.
func (idx *Index) FindFit(required int64) (Extent, bool) {
	i := sort.Search(len(idx.keys), func(i int) bool { return idx.keys[i] >= required })
	if i == len(idx.keys) {
		return Extent{}, false
	}
	bucket := idx.buckets[idx.keys[i]]
	return bucket[len(bucket)-1], true
}

// Allocate performs find-fit plus the splitting behavior of spec.md
// §4.3: the chosen extent is removed; if its remainder after carving
// out `required` bytes is >= align, the remainder is reinserted as a
// fresh free extent, otherwise the whole extent is consumed. Returns
// the offset of the carved-out region.
func (idx *Index) Allocate(required, align int64) (offset int64, ok bool) {
	ext, found := idx.FindFit(required)
	if !found {
		return 0, false
	}
	if !idx.Remove(ext) {
		panic("freespace: find_fit returned an extent that Remove could not find")
	}
	remainder := ext.Size - required
	if remainder >= align {
		idx.Insert(Extent{Offset: ext.Offset + required, Size: remainder})
	}
	return ext.Offset, true
}

// Clear drops every tracked extent.
func (idx *Index) Clear() {
	idx.buckets = make(map[int64][]Extent)
	idx.keys = idx.keys[:0]
	idx.bytes = 0
	idx.blocks = 0
}

// Coalesce merges every pair of physically adjacent free extents.
// Materializes all extents sorted by offset, sweeps once merging runs
// where prev.Offset+prev.Size == next.Offset, then rebuilds the index
// from the merged run. O(N log N) over all extents N.
func (idx *Index) Coalesce() {
	all := idx.all()
	if len(all) == 0 {
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Offset < all[j].Offset })

	merged := make([]Extent, 0, len(all))
	cur := all[0]
	for _, next := range all[1:] {
		if cur.Offset+cur.Size == next.Offset {
			cur.Size += next.Size
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	merged = append(merged, cur)

	idx.Clear()
	for _, ext := range merged {
		idx.Insert(ext)
	}
}

// all returns every tracked extent, in no particular order.
func (idx *Index) all() []Extent {
	out := make([]Extent, 0, idx.blocks)
	for _, bucket := range idx.buckets {
		out = append(out, bucket...)
	}
	return out
}

func (idx *Index) insertKey(size int64) {
	i := sort.Search(len(idx.keys), func(i int) bool { return idx.keys[i] >= size })
	idx.keys = append(idx.keys, 0)
	copy(idx.keys[i+1:], idx.keys[i:])
	idx.keys[i] = size
}

func (idx *Index) removeKey(size int64) {
	i := sort.Search(len(idx.keys), func(i int) bool { return idx.keys[i] >= size })
	if i >= len(idx.keys) || idx.keys[i] != size {
		panic(errors.Errorf("freespace: key %d not present during removal", size))
	}
	idx.keys = append(idx.keys[:i], idx.keys[i+1:]...)
}
