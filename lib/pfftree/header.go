// Package pfftree implements the page/branch/leaf discipline shared
// by every B-tree in a PFF container: the descriptors index, the
// offsets index, and the local-descriptors tree embedded in a
// descriptor's own payload (§4.4–§4.7). The tree itself never
// interprets key or leaf bytes — that's the job of the Index[T]
// caller's decode functions — so the same recursive-descent and
// node-validation code serves all three.
package pfftree

import (
	"encoding/binary"

	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pffsum"
)

// Header is the fixed tail of every index page (§4.4), read after
// the entry area. Its own entry_size field is authoritative for how
// the entries preceding it are sliced — different tree instances
// (descriptors index, offsets index, local-descriptors tree) use
// different per-entry widths, so nothing here assumes a single
// global entry size.
type Header struct {
	EntrySize       uint8
	EntryOffset     uint16
	NumberOfEntries uint16
	MaximumEntries  uint16
	Level           uint8
	Signature       uint16
	CRC             uint32
	BackPointer     pffprim.Identifier
}

// headerFixedSize is the byte count of the header up to (but not
// including) the back-pointer field, whose width depends on the
// variant's pointer width.
const headerFixedSize = 1 + 2 + 2 + 2 + 1 + 2 + 4

// HeaderSize is the total on-disk size of a node header for variant.
func HeaderSize(variant pffprim.Variant) int {
	return headerFixedSize + variant.PointerWidth()
}

// parseHeader decodes and validates a node header found at the tail
// of buf (a full page). magic is the index type's expected
// signature; pageSize is the page this header was sliced from.
func parseHeader(buf []byte, variant pffprim.Variant, magic uint16, pageSize int, strict bool) (Header, bool, error) {
	hs := HeaderSize(variant)
	if len(buf) < hs {
		return Header{}, false, pfferrors.NewCorruptedError("parse_header", "page too small for header: %d < %d", len(buf), hs)
	}

	var h Header
	h.EntrySize = buf[0]
	h.EntryOffset = binary.LittleEndian.Uint16(buf[1:3])
	h.NumberOfEntries = binary.LittleEndian.Uint16(buf[3:5])
	h.MaximumEntries = binary.LittleEndian.Uint16(buf[5:7])
	h.Level = buf[7]
	h.Signature = binary.LittleEndian.Uint16(buf[8:10])
	h.CRC = binary.LittleEndian.Uint32(buf[10:14])

	switch variant.PointerWidth() {
	case 4:
		h.BackPointer = pffprim.Identifier(binary.LittleEndian.Uint32(buf[14:18]))
	case 8:
		h.BackPointer = pffprim.Identifier(binary.LittleEndian.Uint64(buf[14:22]))
	}

	if h.Signature != magic {
		return Header{}, false, pfferrors.NewCorruptedError("parse_header", "bad signature 0x%04x, want 0x%04x", h.Signature, magic)
	}
	if h.NumberOfEntries > h.MaximumEntries {
		return Header{}, false, pfferrors.NewCorruptedError("parse_header", "number_of_entries %d exceeds maximum_entries %d", h.NumberOfEntries, h.MaximumEntries)
	}
	entryAreaEnd := int(h.EntryOffset) + int(h.NumberOfEntries)*int(h.EntrySize)
	if entryAreaEnd > pageSize-hs {
		return Header{}, false, pfferrors.NewCorruptedError("parse_header", "entry area end %d exceeds page budget %d", entryAreaEnd, pageSize-hs)
	}

	corrupted := false
	if !pffsum.Verify(buf[:headerFixedSize-4], h.CRC) {
		if strict {
			return Header{}, false, pfferrors.NewCorruptedError("parse_header", "crc mismatch over page header")
		}
		corrupted = true
	}

	return h, corrupted, nil
}

// IsLeaf reports whether this node is a leaf (level 0) rather than a
// branch.
func (h Header) IsLeaf() bool { return h.Level == 0 }
