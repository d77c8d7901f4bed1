// Package pffindex specializes pfftree.Index into the two concrete
// B-trees a PFF container keeps at the top level (§4.6): the
// descriptors index (keyed by node identifier, yielding the
// data/local-descriptors/parent identifiers that make up an item
// descriptor) and the offsets index (keyed by data identifier,
// yielding the on-disk location and size of a payload block).
package pffindex

import (
	"encoding/binary"
	"fmt"

	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pfftree"
)

// Node identifiers (NIDs) on disk are always 4 bytes, even on the
// 64-bit variants; only data/offset pointers (BIDs) widen with the
// variant. Widening to the 64-bit Identifier domain used throughout
// the rest of the core happens at decode time.
const nidWidth = 4

// DescriptorsIndexMagic is the descriptors-index page signature.
const DescriptorsIndexMagic uint16 = 0x4e42 // "NB", evoking a node b-tree

// DescriptorLeaf is one descriptors-index leaf value (§3
// "Descriptor-index leaf").
type DescriptorLeaf struct {
	Identifier                 pffprim.Identifier
	DataIdentifier             pffprim.Identifier
	LocalDescriptorsIdentifier pffprim.Identifier
	ParentIdentifier           pffprim.Identifier
}

func decodeDescriptorLeaf(variant pffprim.Variant) pfftree.DecodeLeaf[DescriptorLeaf] {
	pw := variant.PointerWidth()
	entrySize := nidWidth + pw + pw + nidWidth
	return func(raw []byte) (uint64, DescriptorLeaf, error) {
		if len(raw) < entrySize {
			return 0, DescriptorLeaf{}, pfferrors.NewCorruptedError("decode_descriptor_leaf",
				"entry too short: %d < %d", len(raw), entrySize)
		}
		id := pffprim.Identifier(binary.LittleEndian.Uint32(raw[0:4]))
		off := nidWidth
		dataID := readPointer(raw[off:off+pw], pw)
		off += pw
		ldID := readPointer(raw[off:off+pw], pw)
		off += pw
		parentID := pffprim.Identifier(binary.LittleEndian.Uint32(raw[off : off+4]))

		return uint64(id), DescriptorLeaf{
			Identifier:                 id,
			DataIdentifier:             dataID,
			LocalDescriptorsIdentifier: ldID,
			ParentIdentifier:           parentID,
		}, nil
	}
}

func readPointer(raw []byte, width int) pffprim.Identifier {
	if width == 4 {
		return pffprim.Identifier(binary.LittleEndian.Uint32(raw))
	}
	return pffprim.Identifier(binary.LittleEndian.Uint64(raw))
}

// DecodeDescriptorEntry decodes one raw descriptors-index leaf entry
// directly, without going through a tree walk. Used by the recovery
// scanner, which validates a candidate page's own header and then
// decodes its entries straight off the page it just read.
func DecodeDescriptorEntry(variant pffprim.Variant, raw []byte) (DescriptorLeaf, error) {
	_, v, err := decodeDescriptorLeaf(variant)(raw)
	return v, err
}

// DescriptorsIndex is the descriptors index (§4.6), keyed by node
// identifier.
type DescriptorsIndex struct {
	tree *pfftree.Index[DescriptorLeaf]
}

// NewDescriptorsIndex builds a descriptors index rooted at rootOffset
// (back-pointer rootBackPtr), lazily: nothing is read here; every
// page, the root included, is read on demand by Get/Walk.
func NewDescriptorsIndex(f pffdiskio.File, variant pffprim.Variant, rootOffset int64, rootBackPtr pffprim.Identifier, strict bool) *DescriptorsIndex {
	return &DescriptorsIndex{tree: &pfftree.Index[DescriptorLeaf]{
		File:        f,
		Variant:     variant,
		Magic:       DescriptorsIndexMagic,
		KeyWidth:    nidWidth,
		RootOffset:  rootOffset,
		RootBackPtr: rootBackPtr,
		Decode:      decodeDescriptorLeaf(variant),
		Strict:      strict,
	}}
}

// GetByIdentifier looks up a descriptor leaf by identifier. A clean
// miss is reported via pfferrors.ErrNotFound.
func (idx *DescriptorsIndex) GetByIdentifier(id pffprim.Identifier) (DescriptorLeaf, error) {
	return idx.tree.Get(uint64(id))
}

// SetOnCorrupted installs a callback invoked whenever a tolerant-mode
// CRC mismatch is accepted while descending this index (§4.13).
func (idx *DescriptorsIndex) SetOnCorrupted(f func(offset int64)) {
	idx.tree.OnCorrupted = f
}

// SetAbort installs a callback polled once per recursion step while
// descending this index (§5 "Long recursive walks ... check the abort
// flag between steps").
func (idx *DescriptorsIndex) SetAbort(f func() bool) {
	idx.tree.Abort = f
}

// Walk visits every descriptor leaf in the tree, used by the
// descriptor-to-item-tree linker's phase 1 full walk (§4.11) and by
// recovery's duplicate-suppression pass.
func (idx *DescriptorsIndex) Walk(visit func(DescriptorLeaf) error) error {
	return idx.tree.WalkLeaves(func(_ uint64, v DescriptorLeaf) error { return visit(v) })
}

func (l DescriptorLeaf) String() string {
	return fmt.Sprintf("descriptor{id=%s data=%s ldt=%s parent=%s}", l.Identifier, l.DataIdentifier, l.LocalDescriptorsIdentifier, l.ParentIdentifier)
}
