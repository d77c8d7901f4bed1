// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pffdiskio provides a positioned byte-IO handle over a PFF
// container, plus helpers (a stateful io.ByteReader adapter and a KMP
// substring scanner) used by the recovery scanner to hunt for
// signatures in unallocated space.
package pffdiskio

import (
	"io"
)

// File is a read-only positioned handle to a container. It has no
// WriteAt method (no write support).
type File interface {
	Name() string
	Size() int64
	Close() error
	ReadAt(p []byte, off int64) (n int, err error)
}

var (
	_ io.ReaderAt = File(nil)
	_ io.Closer   = File(nil)
)

// IoError wraps a short read or other I/O failure from the underlying
// handle. It is always fatal for the operation that triggered it.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string { return "pff: io: " + e.Op + ": " + e.Err.Error() }
func (e *IoError) Unwrap() error { return e.Err }

// ReadAt reads exactly len(p) bytes at off, or returns an *IoError.
func ReadAt(f File, p []byte, off int64) error {
	n, err := f.ReadAt(p, off)
	if err != nil || n != len(p) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return &IoError{Op: "read_at", Err: err}
	}
	return nil
}
