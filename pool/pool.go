// Package pool implements the Pool Coordinator: the public face of
// the arena-style string allocator. It owns the Backing Buffer, the
// Allocation Table and the Free-Space Index, and orchestrates policy
// — when to coalesce, when to grow.
//
// Grounded on the teacher's hybrid.Allocator, which routes
// Allocate/Free between a buddy allocator and a slab allocator the
// same way this coordinator routes between the free-space index and
// the bump (tail) region; the two-tier size routing collapses into a
// single free-space index per spec.md §2 component 4, since the spec
// calls for one allocator, not a slab/buddy split.
package pool

import (
	"math"

	"github.com/pkg/errors"

	"github.com/shenjiangwei/strarena/config"
	"github.com/shenjiangwei/strarena/internal/buffer"
	"github.com/shenjiangwei/strarena/internal/freespace"
	"github.com/shenjiangwei/strarena/internal/idtable"
	"github.com/shenjiangwei/strarena/poolerr"
)

// unitBytes is U from spec.md §3: bytes per caller-visible code unit.
// SPEC_FULL.md resolves this to 1 (raw bytes) for a Go implementation
// working natively in UTF-8/[]byte rather than UTF-16 code units.
const unitBytes = 1

// Stats is a read-only snapshot of a pool's bookkeeping, grounded on
// the teacher's mpool.PoolStats.
type Stats struct {
	ActiveAllocations int
	FreeSpaceUnits     int64
	TailFreeUnits      int64
	FragmentationPct   float64
	TotalFreeBytes     int64
	TotalFreeBlocks    int

	Allocations int64
	Frees       int64
	Coalesces   int64
	Grows       int64
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithPolicy overrides the default coalesce/growth policy.
func WithPolicy(p config.Policy) Option {
	return func(pl *Pool) { pl.policy = p }
}

// WithDebugZeroOnFree enables the optional debug behavior from
// spec.md §4.4 step 5: freed bytes are overwritten with zero so that
// accidental use-after-free reads are more likely to be caught by
// tests. Off by default — it costs an extra pass over every freed
// extent.
func WithDebugZeroOnFree() Option {
	return func(pl *Pool) { pl.debugZeroOnFree = true }
}

// Pool is the arena-style string allocator. The zero value is not
// valid; construct with New. A Pool is single-writer: concurrent
// mutating calls (Allocate*, Free, CompactAndGrow, Clear, Dispose)
// require the caller to provide exclusive access, per spec.md §5.
// Concurrent Read-only calls while no mutation is in flight are safe.
type Pool struct {
	policy config.Policy

	buf   *buffer.Buffer
	table *idtable.Table
	free  *freespace.Index

	capacityBytes int64
	bumpOffset    int64
	allowGrowth   bool
	disposed      bool

	debugZeroOnFree    bool
	freesSinceCoalesce int

	stats Stats
}

// New creates a pool with room for initialCapacityUnits code units.
// If allowGrowth is false, allocations that do not fit fail with
// OutOfMemory instead of triggering CompactAndGrow.
func New(initialCapacityUnits int64, allowGrowth bool, opts ...Option) (*Pool, error) {
	if initialCapacityUnits < 1 {
		return nil, poolerr.InvalidArgument("pool: initial_capacity_units must be >= 1, got %d", initialCapacityUnits)
	}
	capacityBytes := initialCapacityUnits * unitBytes
	if capacityBytes/unitBytes != initialCapacityUnits {
		return nil, poolerr.InvalidArgument("pool: initial_capacity_units %d overflows the size word", initialCapacityUnits)
	}

	p := &Pool{policy: config.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.policy.Validate(); err != nil {
		return nil, poolerr.InvalidArgument("pool: %s", err)
	}

	buf, err := buffer.New(capacityBytes)
	if err != nil {
		return nil, poolerr.OutOfMemory("pool: allocating initial buffer: %s", err)
	}

	p.buf = buf
	p.table = idtable.New()
	p.free = freespace.New()
	p.capacityBytes = capacityBytes
	p.allowGrowth = allowGrowth

	logDebug("new pool: capacity=%d allow_growth=%v", capacityBytes, allowGrowth)
	return p, nil
}

func alignUp(n, align int64) int64 {
	return (n + align - 1) &^ (align - 1)
}

func maxSafeLength(align int64) int64 {
	return (math.MaxInt64 - align + 1) / unitBytes
}

// AllocateFilled allocates room for len(src) code units and copies
// src into it. An empty src returns the reserved empty id (0) without
// allocating.
func (p *Pool) AllocateFilled(src []byte) (uint64, error) {
	if p.disposed {
		return 0, poolerr.Disposed("allocate")
	}
	if len(src) == 0 {
		return 0, nil
	}
	id, err := p.AllocateUninit(int64(len(src)))
	if err != nil {
		return 0, err
	}
	rec, ok := p.table.Lookup(id)
	if !ok {
		panic("pool: allocate_uninit returned an id that is not in the table")
	}
	if err := p.buf.PlaceAt(rec.Offset, src); err != nil {
		panic(errors.Wrap(err, "pool: placing freshly allocated bytes"))
	}
	return id, nil
}

// AllocateUninit allocates room for lengthUnits code units with
// undefined contents. lengthUnits <= 0 returns the reserved empty id.
func (p *Pool) AllocateUninit(lengthUnits int64) (uint64, error) {
	if p.disposed {
		return 0, poolerr.Disposed("allocate")
	}
	if lengthUnits <= 0 {
		return 0, nil
	}
	align := p.policy.Align
	if lengthUnits > maxSafeLength(align) {
		return 0, poolerr.InvalidArgument("pool: length_units %d exceeds max safe length %d", lengthUnits, maxSafeLength(align))
	}

	needBytes := alignUp(lengthUnits*unitBytes, align)
	if needBytes < align {
		needBytes = align
	}

	if offset, ok := p.free.Allocate(needBytes, align); ok {
		id := p.table.Register(offset, lengthUnits)
		p.stats.Allocations++
		logDebug("allocate_uninit: %d units from free-space index at offset %d (id %d)", lengthUnits, offset, id)
		return id, nil
	}

	if p.bumpOffset+needBytes <= p.capacityBytes {
		offset := p.bumpOffset
		p.bumpOffset += needBytes
		id := p.table.Register(offset, lengthUnits)
		p.stats.Allocations++
		logDebug("allocate_uninit: %d units from tail region at offset %d (id %d)", lengthUnits, offset, id)
		return id, nil
	}

	if !p.allowGrowth {
		return 0, poolerr.OutOfMemory("pool: %d bytes requested, %d available, growth disabled", needBytes, p.capacityBytes-p.bumpOffset)
	}

	growthBytes := int64(float64(p.capacityBytes) * p.policy.Growth)
	additional := needBytes
	if growthBytes > additional {
		additional = growthBytes
	}
	if err := p.CompactAndGrow(additional); err != nil {
		return 0, err
	}

	// Guaranteed to succeed: CompactAndGrow freed capacityBytes-used
	// bytes past bumpOffset plus additional new bytes.
	if p.bumpOffset+needBytes > p.capacityBytes {
		panic("pool: compact_and_grow did not make room for the pending allocation")
	}
	offset := p.bumpOffset
	p.bumpOffset += needBytes
	id := p.table.Register(offset, lengthUnits)
	p.stats.Allocations++
	return id, nil
}

// Free releases id's storage back to the pool. It is a no-op on the
// disposed pool, on id 0, and on an id that is not (or is no longer)
// live — double-free is safe by design.
func (p *Pool) Free(id uint64) error {
	if p.disposed || id == 0 {
		return nil
	}
	rec, ok := p.table.Unregister(id)
	if !ok {
		return nil
	}

	extentSize := alignUp(rec.Length*unitBytes, p.policy.Align)
	if extentSize < p.policy.Align {
		extentSize = p.policy.Align
	}

	if p.debugZeroOnFree {
		if err := p.buf.Zero(rec.Offset, extentSize); err != nil {
			logError("debug zero-on-free failed for id %d: %s", id, err)
		}
	}

	p.free.Insert(freespace.Extent{Offset: rec.Offset, Size: extentSize})
	p.freesSinceCoalesce++
	p.stats.Frees++

	if p.shouldCoalesce() {
		p.Coalesce()
	}
	return nil
}

// shouldCoalesce implements the coalesce guard from spec.md §4.3: all
// three conditions must hold before an O(N log N) coalesce runs.
func (p *Pool) shouldCoalesce() bool {
	return p.FragmentationPct() > p.policy.FragThresholdPct &&
		p.free.TotalFreeBlocks() >= p.policy.MinBlocksToCoalesce &&
		p.freesSinceCoalesce >= p.policy.MinFreesBetweenCoalesce
}

// Coalesce merges every pair of physically adjacent free extents.
// Exposed directly (spec.md §8 scenario S4 allows invoking it
// "directly or via threshold") in addition to the automatic guard in
// Free.
func (p *Pool) Coalesce() {
	p.free.Coalesce()
	p.freesSinceCoalesce = 0
	p.stats.Coalesces++
	logDebug("coalesce: %d free blocks, %d free bytes", p.free.TotalFreeBlocks(), p.free.TotalFreeBytes())
}

// CompactAndGrow defragments all live allocations into a fresh buffer
// (capacityBytes+additionalBytes in size), rewriting every record's
// offset so existing handles remain valid. On failure after the new
// buffer is allocated but before installation, the pool is left
// exactly as it was.
func (p *Pool) CompactAndGrow(additionalBytes int64) error {
	if p.disposed {
		return poolerr.Disposed("compact_and_grow")
	}
	if additionalBytes < 0 {
		return poolerr.InvalidArgument("pool: additional_bytes must be >= 0, got %d", additionalBytes)
	}
	newCapacity := p.capacityBytes + additionalBytes
	if newCapacity < p.capacityBytes {
		return poolerr.InvalidArgument("pool: capacity_bytes + additional_bytes overflows")
	}

	newBuf, err := buffer.New(newCapacity)
	if err != nil {
		return poolerr.OutOfMemory("pool: allocating grown buffer: %s", err)
	}

	type placement struct {
		id     uint64
		offset int64
		length int64
	}
	placements := make([]placement, 0, p.table.Len())
	var writeOffset int64

	var placeErr error
	p.table.IterateAll(func(id uint64, rec idtable.Record) bool {
		size := alignUp(rec.Length*unitBytes, p.policy.Align)
		if size < p.policy.Align {
			size = p.policy.Align
		}
		span, err := p.buf.ReadSpan(rec.Offset, rec.Length*unitBytes)
		if err != nil {
			placeErr = errors.Wrapf(err, "pool: reading live allocation %d during compaction", id)
			return false
		}
		if err := newBuf.PlaceAt(writeOffset, span); err != nil {
			placeErr = errors.Wrapf(err, "pool: placing live allocation %d during compaction", id)
			return false
		}
		placements = append(placements, placement{id: id, offset: writeOffset, length: rec.Length})
		writeOffset += size
		return true
	})
	if placeErr != nil {
		// newBuf is simply dropped; pool state is untouched.
		return placeErr
	}

	for _, pl := range placements {
		if !p.table.RewriteOffset(pl.id, pl.offset) {
			panic("pool: live allocation vanished mid-compaction")
		}
	}

	oldBuf := p.buf
	oldCapacity := p.capacityBytes
	p.buf = newBuf
	oldBuf.Destroy()
	p.capacityBytes = newCapacity
	p.bumpOffset = writeOffset
	p.free.Clear()
	p.freesSinceCoalesce = 0
	p.stats.Grows++

	logInfo("compact_and_grow: capacity %d -> %d, %d live allocations relocated", oldCapacity, newCapacity, len(placements))
	return nil
}

// Read returns a view of id's current contents. Id 0 always returns
// an empty view without consulting the allocation table.
func (p *Pool) Read(id uint64) ([]byte, error) {
	if p.disposed {
		return nil, poolerr.Disposed("read")
	}
	rec, ok := p.table.Lookup(id)
	if !ok {
		return nil, poolerr.StaleID(id)
	}
	if rec.Length == 0 {
		return []byte{}, nil
	}
	span, err := p.buf.ReadSpan(rec.Offset, rec.Length*unitBytes)
	if err != nil {
		panic(errors.Wrapf(err, "pool: reading live allocation %d", id))
	}
	return span, nil
}

// LengthUnits returns id's length in code units.
func (p *Pool) LengthUnits(id uint64) (int64, error) {
	if p.disposed {
		return 0, poolerr.Disposed("length_units")
	}
	rec, ok := p.table.Lookup(id)
	if !ok {
		return 0, poolerr.StaleID(id)
	}
	return rec.Length, nil
}

// Clear drops every live allocation and free extent, resetting the
// tail region to the start of the buffer while preserving the
// identifier counter (so handles minted before Clear never collide
// with handles minted after).
func (p *Pool) Clear() error {
	if p.disposed {
		return poolerr.Disposed("clear")
	}
	p.table.Clear()
	p.free.Clear()
	p.bumpOffset = 0
	p.freesSinceCoalesce = 0
	return nil
}

// Dispose releases the backing buffer and marks the pool dead.
// Idempotent.
func (p *Pool) Dispose() {
	if p.disposed {
		return
	}
	p.buf.Destroy()
	p.disposed = true
	logDebug("pool disposed")
}

// Disposed reports whether Dispose has been called.
func (p *Pool) Disposed() bool { return p.disposed }

// FreeSpaceUnits is the total number of code units available for
// allocation: tail region plus every tracked free extent.
func (p *Pool) FreeSpaceUnits() int64 {
	return (p.capacityBytes - p.bumpOffset + p.free.TotalFreeBytes()) / unitBytes
}

// TailFreeUnits is the number of code units still available in the
// tail region alone (never placed in the free-space index).
func (p *Pool) TailFreeUnits() int64 {
	return (p.capacityBytes - p.bumpOffset) / unitBytes
}

// ActiveAllocations is the number of live allocations.
func (p *Pool) ActiveAllocations() int {
	return p.table.Len()
}

// FragmentationPct expresses reclaimable-but-not-yet-reclaimed bytes
// as a percentage of total capacity (spec.md §4.4): a single large
// free block and many scattered small blocks both contribute equally
// here. It is the only value the coalesce guard depends on.
func (p *Pool) FragmentationPct() float64 {
	if p.capacityBytes == 0 {
		return 0
	}
	return 100 * float64(p.free.TotalFreeBytes()) / float64(p.capacityBytes)
}

// Stats returns a snapshot of the pool's bookkeeping.
func (p *Pool) Stats() Stats {
	s := p.stats
	s.ActiveAllocations = p.ActiveAllocations()
	s.FreeSpaceUnits = p.FreeSpaceUnits()
	s.TailFreeUnits = p.TailFreeUnits()
	s.FragmentationPct = p.FragmentationPct()
	s.TotalFreeBytes = p.free.TotalFreeBytes()
	s.TotalFreeBlocks = p.free.TotalFreeBlocks()
	return s
}
