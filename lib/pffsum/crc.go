// Copyright (C) 2024  pff-rec contributors
//
// Checksum handling styled after btrfs-progs-ng's lib/btrfs/btrfssum,
// which wraps stdlib hash/crc32 behind a named Sum function rather
// than hand-rolling a CRC loop.
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pffsum implements the CRC-32 used to validate data-block and
// index-node trailers: ECMA/IEEE reflected polynomial, initial value
// 0, final XOR 0xFFFFFFFF.
//
// This is NOT quite stdlib's crc32.ChecksumIEEE: that helper inverts
// the seed on entry and exit (crc = ^crc ... ^crc), which amounts to
// init=0xFFFFFFFF rather than the init=0 the format specifies. The
// reflected table itself (polynomial 0xEDB88320) is identical to
// IEEE's, so we reuse crc32.IEEETable rather than hand-rolling the
// 256-entry table, and only replace the pre/post XOR step to match
// the format's parameterization.
package pffsum

import "hash/crc32"

var table = crc32.IEEETable

// Sum computes the format's CRC-32 variant over data.
func Sum(data []byte) uint32 {
	crc := uint32(0)
	for _, b := range data {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}
	return crc ^ 0xFFFFFFFF
}

// Verify reports whether data's computed checksum equals want.
func Verify(data []byte, want uint32) bool {
	return Sum(data) == want
}
