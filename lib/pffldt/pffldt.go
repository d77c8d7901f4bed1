// Package pffldt implements the local-descriptors tree (§4.7): a
// small B-tree embedded in the data a descriptor's
// local_descriptors_identifier points at, mapping sub-identifiers to
// (data, sub-tree) pairs for sub-payloads hanging off a parent item
// (attachment bytes, embedded-message bytes, recipient rows). It
// reuses pfftree's page/branch/leaf discipline exactly like the two
// top-level indexes; only the leaf shape and signature differ.
package pffldt

import (
	"encoding/binary"
	"fmt"

	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pfftree"
)

// Magic is the local-descriptors tree page signature.
const Magic uint16 = 0x4c44 // "LD"

const nidWidth = 4

// Value is one local-descriptors tree leaf (§3 "Local-descriptor
// value").
type Value struct {
	Identifier                 pffprim.Identifier
	DataIdentifier             pffprim.Identifier
	LocalDescriptorsIdentifier pffprim.Identifier
}

func decodeValue(variant pffprim.Variant) pfftree.DecodeLeaf[Value] {
	pw := variant.PointerWidth()
	entrySize := nidWidth + pw + pw
	return func(raw []byte) (uint64, Value, error) {
		if len(raw) < entrySize {
			return 0, Value{}, pfferrors.NewCorruptedError("decode_ldt_leaf",
				"entry too short: %d < %d", len(raw), entrySize)
		}
		id := pffprim.Identifier(binary.LittleEndian.Uint32(raw[0:4]))
		off := nidWidth
		dataID := readPointer(raw[off:off+pw], pw)
		off += pw
		ldID := readPointer(raw[off:off+pw], pw)
		return uint64(id), Value{
			Identifier:                 id,
			DataIdentifier:             dataID,
			LocalDescriptorsIdentifier: ldID,
		}, nil
	}
}

func readPointer(raw []byte, width int) pffprim.Identifier {
	if width == 4 {
		return pffprim.Identifier(binary.LittleEndian.Uint32(raw))
	}
	return pffprim.Identifier(binary.LittleEndian.Uint64(raw))
}

// Tree is one open local-descriptors tree.
type Tree struct {
	tree *pfftree.Index[Value]
}

// New builds a local-descriptors tree rooted at rootOffset, whose
// identifier (the owning descriptor's local_descriptors_identifier,
// already resolved through the offsets index by the caller) is also
// the root page's expected back-pointer.
func New(f pffdiskio.File, variant pffprim.Variant, rootOffset int64, rootBackPtr pffprim.Identifier, strict bool) *Tree {
	return &Tree{tree: &pfftree.Index[Value]{
		File:        f,
		Variant:     variant,
		Magic:       Magic,
		KeyWidth:    nidWidth,
		RootOffset:  rootOffset,
		RootBackPtr: rootBackPtr,
		Decode:      decodeValue(variant),
		Strict:      strict,
	}}
}

// GetByIdentifier looks up a sub-identifier within this tree.
func (t *Tree) GetByIdentifier(id pffprim.Identifier) (Value, error) {
	return t.tree.Get(uint64(id))
}

// SetOnCorrupted installs a callback invoked whenever a tolerant-mode
// CRC mismatch is accepted while descending this tree (§4.13).
func (t *Tree) SetOnCorrupted(f func(offset int64)) {
	t.tree.OnCorrupted = f
}

// SetAbort installs a callback polled once per recursion step while
// descending this tree (§5 "Long recursive walks ... check the abort
// flag between steps").
func (t *Tree) SetAbort(f func() bool) {
	t.tree.Abort = f
}

// Walk visits every entry in this tree.
func (t *Tree) Walk(visit func(Value) error) error {
	return t.tree.WalkLeaves(func(_ uint64, v Value) error { return visit(v) })
}

func (v Value) String() string {
	return fmt.Sprintf("ldt{id=%s data=%s ldt=%s}", v.Identifier, v.DataIdentifier, v.LocalDescriptorsIdentifier)
}
