package pff

import (
	"errors"

	"github.com/libpff-rec/pff-rec/lib/pfferrors"
)

var (
	errContainerNotOpen     = errors.New("container is not open")
	errUnrecognizedCodepage = errors.New("unrecognized codepage")
	errIndexOutOfRange      = errors.New("index out of range")
)

// The façade's error taxonomy (§4.0, §7) is exactly pfferrors'
// taxonomy: re-exported here so callers never need to import the
// internal lib/pfferrors package directly.
type (
	ArgumentError    = pfferrors.ArgumentError
	IoError          = pfferrors.IoError
	UnsupportedError = pfferrors.UnsupportedError
	CorruptedError   = pfferrors.CorruptedError
)

// ErrNotFound is the clean lookup-miss outcome (§7): not an error in
// the log-worthy sense, a routine result callers check with
// errors.Is.
var ErrNotFound = pfferrors.ErrNotFound

// CancelledError reports that an in-flight operation observed
// SignalAbort and unwound without writing partial results (§4.12,
// §9 "Abort"). Unlike the other taxonomy members it wraps a sentinel
// rather than an operation-supplied error, since every cancellation
// carries the same meaning regardless of where it was observed.
type CancelledError struct {
	Op string
}

func (e *CancelledError) Error() string { return "pff: cancelled: " + e.Op }
func (e *CancelledError) Unwrap() error { return pfferrors.ErrCancelled }

func newCancelledError(op string) *CancelledError { return &CancelledError{Op: op} }

// IsNotFound reports whether err is the NotFound outcome.
func IsNotFound(err error) bool { return pfferrors.IsNotFound(err) }

// IsCancelled reports whether err is, or wraps, a cancellation.
func IsCancelled(err error) bool {
	if _, ok := err.(*CancelledError); ok {
		return true
	}
	return pfferrors.IsCancelled(err)
}

// IsCorrupted reports whether err is, or wraps, a CorruptedError.
func IsCorrupted(err error) bool { return pfferrors.IsCorrupted(err) }

// IsArgumentError reports whether err is, or wraps, an ArgumentError.
func IsArgumentError(err error) bool { return pfferrors.IsArgumentError(err) }
