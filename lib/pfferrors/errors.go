// Copyright (C) 2024  pff-rec contributors
//
// Error wrapping styled after btrfs-progs-ng's *btrfstree.NodeError:
// a typed, %w-wrapped error carrying structured context (the
// operation and the address/identifier involved) rather than only a
// formatted string.
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pfferrors defines the error taxonomy shared by every layer
// of the core (§7): Argument, Io, Unsupported, Corrupted, and the
// non-error NotFound/Cancelled outcomes.
package pfferrors

import (
	"errors"
	"fmt"
)

// ErrNotFound is a clean lookup miss — not a failure. Callers check
// for it with errors.Is.
var ErrNotFound = errors.New("pff: not found")

// ErrCancelled is returned when an abort was observed mid-operation.
var ErrCancelled = errors.New("pff: cancelled")

// ArgumentError reports a caller-supplied value that is nil or out of
// range.
type ArgumentError struct {
	Op  string
	Err error
}

func (e *ArgumentError) Error() string { return "pff: argument: " + e.Op + ": " + e.Err.Error() }
func (e *ArgumentError) Unwrap() error { return e.Err }

func NewArgumentError(op string, err error) *ArgumentError {
	return &ArgumentError{Op: op, Err: err}
}

// IoError reports that the underlying byte-IO handle failed, or
// returned fewer bytes than requested.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string { return "pff: io: " + e.Op + ": " + e.Err.Error() }
func (e *IoError) Unwrap() error { return e.Err }

func NewIoError(op string, err error) *IoError {
	return &IoError{Op: op, Err: err}
}

// UnsupportedError reports a recognized-but-unhandled on-disk value:
// an unknown file variant, encryption type, or index signature. Fatal
// for the affected operation, but does not taint the container.
type UnsupportedError struct {
	Op  string
	Err error
}

func (e *UnsupportedError) Error() string { return "pff: unsupported: " + e.Op + ": " + e.Err.Error() }
func (e *UnsupportedError) Unwrap() error { return e.Err }

func NewUnsupportedError(op string, err error) *UnsupportedError {
	return &UnsupportedError{Op: op, Err: err}
}

// CorruptedError reports a CRC mismatch, back-pointer mismatch, size
// overflow, recursion-depth overrun, or invalid signature in a known
// structure. Recovered locally where possible (the container's
// Corrupted flag is set and partial data is returned); propagated
// where a clean result cannot be produced.
type CorruptedError struct {
	Op  string
	Err error
}

func (e *CorruptedError) Error() string { return "pff: corrupted: " + e.Op + ": " + e.Err.Error() }
func (e *CorruptedError) Unwrap() error { return e.Err }

func NewCorruptedError(op string, format string, args ...any) *CorruptedError {
	return &CorruptedError{Op: op, Err: fmt.Errorf(format, args...)}
}

// IsNotFound reports whether err is the NotFound outcome.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsCancelled reports whether err is the Cancelled outcome.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// IsCorrupted reports whether err (or something it wraps) is a
// CorruptedError.
func IsCorrupted(err error) bool {
	var c *CorruptedError
	return errors.As(err, &c)
}

// IsArgumentError reports whether err (or something it wraps) is an
// ArgumentError.
func IsArgumentError(err error) bool {
	var a *ArgumentError
	return errors.As(err, &a)
}
