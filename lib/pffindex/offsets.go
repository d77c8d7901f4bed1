package pffindex

import (
	"encoding/binary"
	"fmt"

	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pfftree"
)

// OffsetsIndexMagic is the offsets-index page signature.
const OffsetsIndexMagic uint16 = 0x4242 // "BB", evoking a block b-tree

// OffsetsLeaf is one offsets-index leaf value (§3 "Offsets-index
// leaf"): where a data identifier's bytes actually live.
type OffsetsLeaf struct {
	Identifier     pffprim.Identifier
	FileOffset     int64
	DataSize       int32
	ReferenceCount uint16
}

func decodeOffsetsLeaf(variant pffprim.Variant) pfftree.DecodeLeaf[OffsetsLeaf] {
	pw := variant.PointerWidth()
	entrySize := pw + pw + 4 + 2
	return func(raw []byte) (uint64, OffsetsLeaf, error) {
		if len(raw) < entrySize {
			return 0, OffsetsLeaf{}, pfferrors.NewCorruptedError("decode_offsets_leaf",
				"entry too short: %d < %d", len(raw), entrySize)
		}
		id := readPointer(raw[0:pw], pw)
		fileOff := int64(readPointer(raw[pw:2*pw], pw))
		dataSize := int32(binary.LittleEndian.Uint32(raw[2*pw : 2*pw+4]))
		refCount := binary.LittleEndian.Uint16(raw[2*pw+4 : 2*pw+6])

		if fileOff < 0 {
			return 0, OffsetsLeaf{}, pfferrors.NewCorruptedError("decode_offsets_leaf", "negative file offset %d", fileOff)
		}
		if dataSize < 0 {
			return 0, OffsetsLeaf{}, pfferrors.NewCorruptedError("decode_offsets_leaf", "negative data size %d", dataSize)
		}

		return uint64(id), OffsetsLeaf{
			Identifier:     id,
			FileOffset:     fileOff,
			DataSize:       dataSize,
			ReferenceCount: refCount,
		}, nil
	}
}

// DecodeOffsetsEntry decodes one raw offsets-index leaf entry
// directly, without going through a tree walk. Used by the recovery
// scanner, which validates a candidate page's own header and then
// decodes its entries straight off the page it just read.
func DecodeOffsetsEntry(variant pffprim.Variant, raw []byte) (OffsetsLeaf, error) {
	_, v, err := decodeOffsetsLeaf(variant)(raw)
	return v, err
}

// OffsetsIndex is the offsets index (§4.6), keyed by data identifier.
type OffsetsIndex struct {
	tree *pfftree.Index[OffsetsLeaf]
}

// NewOffsetsIndex builds an offsets index rooted at rootOffset.
func NewOffsetsIndex(f pffdiskio.File, variant pffprim.Variant, rootOffset int64, rootBackPtr pffprim.Identifier, strict bool) *OffsetsIndex {
	pw := variant.PointerWidth()
	return &OffsetsIndex{tree: &pfftree.Index[OffsetsLeaf]{
		File:        f,
		Variant:     variant,
		Magic:       OffsetsIndexMagic,
		KeyWidth:    pw,
		RootOffset:  rootOffset,
		RootBackPtr: rootBackPtr,
		Decode:      decodeOffsetsLeaf(variant),
		Strict:      strict,
	}}
}

// GetByIdentifier looks up an offsets leaf by data identifier.
func (idx *OffsetsIndex) GetByIdentifier(id pffprim.Identifier) (OffsetsLeaf, error) {
	return idx.tree.Get(uint64(id))
}

// SetOnCorrupted installs a callback invoked whenever a tolerant-mode
// CRC mismatch is accepted while descending this index (§4.13).
func (idx *OffsetsIndex) SetOnCorrupted(f func(offset int64)) {
	idx.tree.OnCorrupted = f
}

// SetAbort installs a callback polled once per recursion step while
// descending this index (§5 "Long recursive walks ... check the abort
// flag between steps").
func (idx *OffsetsIndex) SetAbort(f func() bool) {
	idx.tree.Abort = f
}

// Walk visits every offsets leaf in the tree.
func (idx *OffsetsIndex) Walk(visit func(OffsetsLeaf) error) error {
	return idx.tree.WalkLeaves(func(_ uint64, v OffsetsLeaf) error { return visit(v) })
}

func (l OffsetsLeaf) String() string {
	return fmt.Sprintf("offsets{id=%s off=%d size=%d refs=%d}", l.Identifier, l.FileOffset, l.DataSize, l.ReferenceCount)
}
