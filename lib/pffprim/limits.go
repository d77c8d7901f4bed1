// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package pffprim

// MaxRecursionDepth bounds index descent, item-tree parent chasing,
// and data-array resolution (§4.5, §4.8, §4.11, §9 "Recursion
// depth"). This is a property of the format's intended trees: deeper
// structures are always corruption, never a legitimately large file.
const MaxRecursionDepth = 32

// AbortCheckBound is the number of recursive steps within which an
// in-flight operation must observe a signalled abort and return
// Cancelled (§8 "After signal_abort...").
const AbortCheckBound = 1024

// TableSignatureByte3 is the third byte of a valid MAPI property
// table block: invariant across all table types.
//
// Open question (spec.md §9): the source lists eight allowed
// fourth-byte values after this one; whether 0xA5 is truly a table
// marker or an artifact of the original implementation is unclear
// from the source. This set is preserved exactly as enumerated there,
// unmodified, so that behavior matches observed real-world files
// rather than a theoretically "cleaner" set.
const TableSignatureByte3 = 0xEC

// TableSignatureBytes4 is the set of allowed fourth bytes following
// TableSignatureByte3 in a valid table-block signature (§4.9 step 3,
// §8 scenario 2/3). Table types, by convention: 0x6C heap-on-node,
// 0x7C table context (7c), 0x8C table context (8c), 0x9C table
// context (9c), 0xA5 disputed (see above), 0xAC table context (ac),
// 0xBC table context (bc), 0xCC table context (cc).
var TableSignatureBytes4 = map[byte]bool{
	0x6C: true,
	0x7C: true,
	0x8C: true,
	0x9C: true,
	0xA5: true,
	0xAC: true,
	0xBC: true,
	0xCC: true,
}

// LooksLikeTableSignature reports whether the first four bytes of buf
// match the invariant table-block signature used by the decryption
// heuristic (§4.9) to detect a misdeclared encryption mode.
func LooksLikeTableSignature(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	return buf[2] == TableSignatureByte3 && TableSignatureBytes4[buf[3]]
}
