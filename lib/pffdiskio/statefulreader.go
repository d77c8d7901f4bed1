// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package pffdiskio

import "io"

// StatefulReader adapts a File (positioned reads) into a sequential
// io.ByteReader, so that the KMP scanner (which only knows how to
// consume a stream of bytes) can walk a container front-to-back
// looking for index-node and magic signatures during recovery.
type StatefulReader struct {
	inner File
	pos   int64
	end   int64
}

func NewStatefulReader(f File, start, end int64) *StatefulReader {
	return &StatefulReader{inner: f, pos: start, end: end}
}

func (sr *StatefulReader) Pos() int64 { return sr.pos }

func (sr *StatefulReader) ReadByte() (byte, error) {
	if sr.pos >= sr.end {
		return 0, io.EOF
	}
	var buf [1]byte
	n, err := sr.inner.ReadAt(buf[:], sr.pos)
	if n == 1 {
		sr.pos++
		return buf[0], nil
	}
	if err != nil {
		return 0, err
	}
	return 0, io.EOF
}
