// Package handle implements the Handle collaborator described in
// spec.md §6/§9: a small, value-copyable reference to a pool
// allocation. It is deliberately outside the core (it only calls into
// pool.Pool), but its contract is normative, so it gets a complete,
// tested implementation here.
//
// Adapted from the teacher's rpc client/server pair: rpc.Client held
// an out-of-process connection and forwarded Allocate/Free calls to a
// remote pool; Handle collapses that same "forward to the pool,
// nothing owned locally" shape into an in-process, two-word value with
// no connection and no destructor, per spec.md §9's design notes.
package handle

import "github.com/shenjiangwei/strarena/pool"

// Handle is a (pool reference, allocation id) pair. It is freely
// copyable and never owns storage; validity is derived entirely from
// the pool's live state. The zero value is the canonical empty
// string handle: id 0 resolves to an empty view without ever
// consulting a pool, regardless of which pool a non-zero handle of
// the same type would carry.
type Handle struct {
	p  *pool.Pool
	id uint64
}

// Empty returns the canonical empty-string handle. It is equivalent
// to the zero value; this constructor exists for readability at call
// sites.
func Empty() Handle {
	return Handle{}
}

// New allocates src into p and returns a handle to it. An empty src
// returns Empty() without allocating, matching pool.AllocateFilled.
func New(p *pool.Pool, src []byte) (Handle, error) {
	id, err := p.AllocateFilled(src)
	if err != nil {
		return Handle{}, err
	}
	if id == 0 {
		return Handle{}, nil
	}
	return Handle{p: p, id: id}, nil
}

// NewUninit allocates room for lengthUnits code units with
// unspecified contents and returns a handle to it.
func NewUninit(p *pool.Pool, lengthUnits int64) (Handle, error) {
	id, err := p.AllocateUninit(lengthUnits)
	if err != nil {
		return Handle{}, err
	}
	if id == 0 {
		return Handle{}, nil
	}
	return Handle{p: p, id: id}, nil
}

// IsEmpty reports whether h is the canonical empty-string handle.
func (h Handle) IsEmpty() bool {
	return h.id == 0
}

// ID returns the underlying allocation identifier. 0 denotes the
// reserved empty string.
func (h Handle) ID() uint64 {
	return h.id
}

// Read resolves h through its pool and returns the current contents.
// Id 0 returns an empty view without touching the pool.
func (h Handle) Read() ([]byte, error) {
	if h.IsEmpty() {
		return []byte{}, nil
	}
	return h.p.Read(h.id)
}

// Len resolves h's length through its pool. Id 0 is always length 0.
func (h Handle) Len() (int64, error) {
	if h.IsEmpty() {
		return 0, nil
	}
	return h.p.LengthUnits(h.id)
}

// Free releases h's allocation by calling pool.Free(id) unconditionally.
// It is a no-op for the empty handle, and safe to call more than once
// on handles that alias the same id (double-free is the pool's job to
// absorb, per spec.md §7).
func (h Handle) Free() {
	if h.IsEmpty() {
		return
	}
	_ = h.p.Free(h.id)
}
