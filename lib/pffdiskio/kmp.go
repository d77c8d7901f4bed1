// Copyright (C) 2022  Luke Shumaker <lukeshu@lukeshu.com>
// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package pffdiskio

import (
	"errors"
	"io"
)

// buildKMPTable takes the string 'substr', and returns a table such
// that 'table[matchLen-1]' is the largest value 'val' for which 'val < matchLen' and
// 'substr[:val] == substr[matchLen-val:matchLen]'.
func buildKMPTable(substr []byte) []int {
	table := make([]int, len(substr))
	for j := range table {
		if j == 0 {
			continue
		}
		val := table[j-1]
		for val > 0 && substr[j] != substr[val] {
			val = table[val-1]
		}
		if substr[val] == substr[j] {
			val++
		}
		table[j] = val
	}
	return table
}

// FindAll returns the starting position (relative to wherever r began
// reading) of all possibly-overlapping occurrences of substr in the r
// stream. Used by the recovery scanner to locate candidate index-node
// and magic signatures across large unallocated ranges without
// loading the whole range into memory at once.
//
// Will panic if len(substr)==0.
func FindAll(r io.ByteReader, substr []byte) ([]int64, error) {
	if len(substr) == 0 {
		panic(errors.New("pffdiskio.FindAll: empty substring"))
	}
	table := buildKMPTable(substr)

	var matches []int64
	var curMatchBeg int64
	var curMatchLen int

	pos := int64(-1)
	for {
		chr, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return matches, err
		}
		pos++

		for curMatchLen > 0 && chr != substr[curMatchLen] {
			overlap := table[curMatchLen-1]
			curMatchBeg += int64(curMatchLen - overlap)
			curMatchLen = overlap
		}
		if chr == substr[curMatchLen] {
			if curMatchLen == 0 {
				curMatchBeg = pos
			}
			curMatchLen++
			if curMatchLen == len(substr) {
				matches = append(matches, curMatchBeg)
				overlap := table[curMatchLen-1]
				curMatchBeg += int64(curMatchLen - overlap)
				curMatchLen = overlap
			}
		}
	}
}
