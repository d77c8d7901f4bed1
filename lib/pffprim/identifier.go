// Copyright (C) 2024  pff-rec contributors
//
// Styled after btrfs-progs-ng's lib/btrfs/btrfsprim (ObjID): a
// primitive on-disk identifier type with named bit-field accessors
// and a small enum of well-known values, rather than a bare integer
// passed around unadorned.
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pffprim holds the primitive, dependency-free types shared
// across the whole core: Identifier, NodeType, Variant, and
// EncryptionMode.
package pffprim

import "fmt"

// Identifier is a node identifier: 64-bit on the 64-bit variants. On
// the 32-bit variant the decoders zero-extend the 32-bit on-disk
// value; none of them applies SignExtend32. The low 5 bits are a
// NodeType tag; the remainder is a file-unique index.
type Identifier uint64

const (
	identifierTypeMask  = 0x1F
	identifierIndexShift = 5
)

// Type extracts the low-5-bit node-type tag.
func (id Identifier) Type() NodeType {
	return NodeType(id & identifierTypeMask)
}

// Index extracts the file-unique index (the remaining bits above the
// type tag).
func (id Identifier) Index() uint64 {
	return uint64(id) >> identifierIndexShift
}

// IsInternal reports whether bit 0x01 of the low 5 bits is set. On an
// offsets-index identifier, this marks the referenced bytes as
// already plaintext: the decryption heuristic (§4.9) must skip them.
func (id Identifier) IsInternal() bool {
	return id&0x01 != 0
}

func (id Identifier) String() string {
	return fmt.Sprintf("0x%08x[type=%v,idx=%d]", uint64(id), id.Type(), id.Index())
}

// SignExtend32 widens a 32-bit on-disk identifier the way the 32-bit
// file variant requires: sign-extended into 64 bits, not zero-padded.
func SignExtend32(v int32) Identifier {
	return Identifier(int64(v))
}

// Cmp orders identifiers numerically, so Identifier satisfies
// containers.Ordered and can key a containers.SortedMap directly.
func (id Identifier) Cmp(other Identifier) int {
	switch {
	case id < other:
		return -1
	case id > other:
		return 1
	default:
		return 0
	}
}
