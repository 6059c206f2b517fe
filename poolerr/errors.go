// Package poolerr defines the error taxonomy surfaced at the pool
// boundary: InvalidArgument, StaleID, OutOfMemory and Disposed.
package poolerr

import (
	"github.com/pkg/errors"
)

// Category sentinels. Check against these with errors.Is; wrapped
// errors returned by the pool keep the sentinel reachable via Unwrap.
var (
	// ErrInvalidArgument is returned when a parameter is rejected
	// before any mutation takes place.
	ErrInvalidArgument = errors.New("strarena: invalid argument")

	// ErrStaleID is returned when an identifier is not present in the
	// allocation table (other than the reserved empty id, 0).
	ErrStaleID = errors.New("strarena: stale allocation id")

	// ErrOutOfMemory is returned when the backing allocation failed or
	// the pool is full and growth is disabled.
	ErrOutOfMemory = errors.New("strarena: out of memory")

	// ErrDisposed is returned when an operation is attempted on a
	// disposed pool.
	ErrDisposed = errors.New("strarena: pool is disposed")
)

// InvalidArgument wraps ErrInvalidArgument with context.
func InvalidArgument(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// StaleID wraps ErrStaleID with the offending identifier.
func StaleID(id uint64) error {
	return errors.Wrapf(ErrStaleID, "id %d", id)
}

// OutOfMemory wraps ErrOutOfMemory with context.
func OutOfMemory(format string, args ...interface{}) error {
	return errors.Wrapf(ErrOutOfMemory, format, args...)
}

// Disposed wraps ErrDisposed with the attempted operation name.
func Disposed(op string) error {
	return errors.Wrapf(ErrDisposed, "operation %q", op)
}
