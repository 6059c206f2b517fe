// Package idtable implements the Allocation Table: the map from live
// allocation identifiers to (offset, length) records, plus the
// monotonically increasing identifier counter.
//
// Grounded on the teacher's allocated map[uint64]*Block bookkeeping in
// hybrid/types.go and hybrid/buddy.go, generalized from "address is
// the key" to "a separate never-reused identifier is the key" per
// spec.md §4.2.
package idtable

// Record describes a live allocation: its byte offset in the backing
// buffer and its length in caller-visible units (bytes, see
// SPEC_FULL.md's U=1 decision).
type Record struct {
	Offset int64
	Length int64
}

// emptyRecord is what Lookup returns for the reserved id 0, without
// ever consulting the table.
var emptyRecord = Record{Offset: 0, Length: 0}

// Table maps allocation identifiers to records. The zero value is not
// ready for use; call New.
type Table struct {
	records map[uint64]Record
	nextID  uint64
}

// New returns an empty allocation table.
func New() *Table {
	return &Table{records: make(map[uint64]Record)}
}

// Register mints a fresh identifier for the given record and returns
// it. Identifier 0 is reserved and is never returned here; if the
// counter would wrap past its range it resumes at 1 (spec.md §4.2's
// chosen overflow policy — acceptable because reaching the wrap point
// of a 64-bit counter while a pre-wrap handle is still alive is not a
// realistic scenario for a single in-memory buffer).
func (t *Table) Register(offset, length int64) uint64 {
	t.nextID++
	if t.nextID == 0 {
		t.nextID = 1
	}
	t.records[t.nextID] = Record{Offset: offset, Length: length}
	return t.nextID
}

// Lookup returns the record for id. Id 0 always resolves to the
// synthetic empty record. Any other id not present in the table
// yields ok=false (stale).
func (t *Table) Lookup(id uint64) (Record, bool) {
	if id == 0 {
		return emptyRecord, true
	}
	rec, ok := t.records[id]
	return rec, ok
}

// Unregister removes id from the table and returns its last known
// record. Returns ok=false if id was not present (including id 0,
// which is never actually stored).
func (t *Table) Unregister(id uint64) (Record, bool) {
	if id == 0 {
		return emptyRecord, false
	}
	rec, ok := t.records[id]
	if ok {
		delete(t.records, id)
	}
	return rec, ok
}

// RewriteOffset updates the offset field of a live record in place,
// used by compact-and-grow after relocating an allocation. Reports
// false if id is not live.
func (t *Table) RewriteOffset(id uint64, newOffset int64) bool {
	rec, ok := t.records[id]
	if !ok {
		return false
	}
	rec.Offset = newOffset
	t.records[id] = rec
	return true
}

// IterateAll calls fn once for every live (id, record) pair, in an
// unspecified order (spec.md §9 notes compact-and-grow need not
// preserve offset ordering). Stops early if fn returns false.
func (t *Table) IterateAll(fn func(id uint64, rec Record) bool) {
	for id, rec := range t.records {
		if !fn(id, rec) {
			return
		}
	}
}

// Len returns the number of live allocations.
func (t *Table) Len() int {
	return len(t.records)
}

// Clear drops every live record but preserves the identifier counter,
// so identifiers minted before Clear never collide with ones minted
// after (spec.md §4.4 "clear").
func (t *Table) Clear() {
	t.records = make(map[uint64]Record)
}
