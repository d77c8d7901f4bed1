// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package pffdiskio

import (
	"io"
	"os"
)

// OSFile adopts an *os.File (or anything with the same shape) as a
// pffdiskio.File.
type OSFile struct {
	*os.File
}

var _ File = (*OSFile)(nil)

func Open(path string) (*OSFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &OSFile{File: f}, nil
}

func (f *OSFile) Size() int64 {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0
	}
	return size
}

func (f *OSFile) ReadAt(dat []byte, off int64) (int, error) {
	return f.File.ReadAt(dat, off)
}

// ReaderAtFile adopts a caller-supplied io.ReaderAt (e.g. an in-memory
// buffer, or a decrypted copy of a PST staged elsewhere) as a
// pffdiskio.File, per the spec's "adopts a caller-supplied stream".
type ReaderAtFile struct {
	name string
	r    io.ReaderAt
	size int64
}

var _ File = (*ReaderAtFile)(nil)

func NewReaderAtFile(name string, r io.ReaderAt, size int64) *ReaderAtFile {
	return &ReaderAtFile{name: name, r: r, size: size}
}

func (f *ReaderAtFile) Name() string                          { return f.name }
func (f *ReaderAtFile) Size() int64                            { return f.size }
func (f *ReaderAtFile) Close() error                           { return nil }
func (f *ReaderAtFile) ReadAt(p []byte, off int64) (int, error) { return f.r.ReadAt(p, off) }
