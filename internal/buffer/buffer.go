// Package buffer implements the Backing Buffer: a single contiguous
// region of untyped bytes with a fixed capacity, owned exclusively by
// a Pool Coordinator. It knows nothing about allocations, free lists
// or identifiers — only raw placement at byte offsets.
//
// Grounded on the byte-slice-plus-offset arenas in
// other_examples/AkiebNazir-kv-store__arena.go and the growable-buffer
// bookkeeping in the teacher's buddy regions, adapted from address
// ranges to real storage.
package buffer

import (
	"github.com/pkg/errors"

	"github.com/shenjiangwei/strarena/poolerr"
)

// Buffer owns a contiguous, fixed-capacity byte region.
type Buffer struct {
	data []byte
}

// New allocates a fresh buffer of the given byte capacity using the
// ambient Go allocator (make). Fails with InvalidArgument if
// capacityBytes is negative; Go's make panics on true OOM, which
// callers are expected to recover from at a much higher level if they
// want that behavior.
func New(capacityBytes int64) (*Buffer, error) {
	if capacityBytes < 0 {
		return nil, poolerr.InvalidArgument("buffer: negative capacity %d", capacityBytes)
	}
	return &Buffer{data: make([]byte, capacityBytes)}, nil
}

// Capacity returns the buffer's total byte capacity.
func (b *Buffer) Capacity() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.data))
}

// PlaceAt copies src into the buffer starting at offset. It returns an
// error, and copies nothing, if [offset, offset+len(src)) does not lie
// inside [0, Capacity()).
func (b *Buffer) PlaceAt(offset int64, src []byte) error {
	end := offset + int64(len(src))
	if offset < 0 || end > b.Capacity() {
		return errors.Errorf("buffer: place_at [%d,%d) exceeds capacity %d", offset, end, b.Capacity())
	}
	copy(b.data[offset:end], src)
	return nil
}

// CopyWithin copies n bytes from srcOffset to dstOffset inside the
// same buffer, tolerating overlap.
func (b *Buffer) CopyWithin(dstOffset, srcOffset, n int64) error {
	if n < 0 {
		return errors.Errorf("buffer: copy_within negative length %d", n)
	}
	if dstOffset < 0 || srcOffset < 0 ||
		dstOffset+n > b.Capacity() || srcOffset+n > b.Capacity() {
		return errors.Errorf("buffer: copy_within [%d:%d] -> [%d:%d] exceeds capacity %d",
			srcOffset, srcOffset+n, dstOffset, dstOffset+n, b.Capacity())
	}
	copy(b.data[dstOffset:dstOffset+n], b.data[srcOffset:srcOffset+n])
	return nil
}

// ReadSpan returns an immutable view of length bytes starting at
// offset. The returned slice aliases the buffer's storage and is only
// valid until the next mutation or Destroy.
func (b *Buffer) ReadSpan(offset, length int64) ([]byte, error) {
	end := offset + length
	if offset < 0 || length < 0 || end > b.Capacity() {
		return nil, errors.Errorf("buffer: read_span [%d,%d) exceeds capacity %d", offset, end, b.Capacity())
	}
	return b.data[offset:end:end], nil
}

// Zero overwrites length bytes starting at offset with zeros. Used by
// the optional debug-zero-on-free behavior.
func (b *Buffer) Zero(offset, length int64) error {
	end := offset + length
	if offset < 0 || length < 0 || end > b.Capacity() {
		return errors.Errorf("buffer: zero [%d,%d) exceeds capacity %d", offset, end, b.Capacity())
	}
	clear := b.data[offset:end]
	for i := range clear {
		clear[i] = 0
	}
	return nil
}

// Destroy releases the buffer's storage. A destroyed buffer reports a
// capacity of zero and rejects all further operations.
func (b *Buffer) Destroy() {
	if b == nil {
		return
	}
	b.data = nil
}
