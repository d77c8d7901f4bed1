package pfftree

import (
	"encoding/binary"

	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// BranchEntry is a decoded branch-node entry: a key and a pointer to
// the child page it guards (§4.4). Branch entries are a fixed shape
// across every tree kind; only the key width differs (4-byte NIDs for
// the descriptors index and the local-descriptors tree, variant
// pointer-width BIDs for the offsets index).
type BranchEntry struct {
	Key              uint64
	ChildOffset      int64
	ChildBackPointer pffprim.Identifier
}

// DecodeLeaf decodes one raw leaf entry into its key and value.
type DecodeLeaf[T any] func(raw []byte) (key uint64, value T, err error)

// Index is a recursive-descent B-tree over index pages: the
// descriptors index, the offsets index, or a local-descriptors tree,
// depending on how it's constructed (§4.5–§4.7). T is the decoded
// leaf value type.
type Index[T any] struct {
	File        pffdiskio.File
	Variant     pffprim.Variant
	Magic       uint16
	KeyWidth    int // 4 for NID-keyed trees, variant.PointerWidth() for BID-keyed trees
	RootOffset  int64
	RootBackPtr pffprim.Identifier
	Decode      DecodeLeaf[T]
	Strict      bool

	// OnCorrupted, if set, is called whenever a node is accepted
	// despite a header CRC mismatch (tolerant mode only; never
	// called when Strict is true). Lets a caller (the façade) set
	// a container-wide corrupted flag without this package knowing
	// anything about containers.
	OnCorrupted func(offset int64)

	// Abort, if set, is polled once per recursion step (§5 "Long
	// recursive walks ... check the abort flag between steps").
	// A true result unwinds the whole call with pfferrors.ErrCancelled.
	Abort func() bool
}

func (idx *Index[T]) readNode(off int64, backPtr pffprim.Identifier) (*Node, error) {
	node, err := ReadNode(idx.File, idx.Variant, off, idx.Magic, backPtr, idx.Strict)
	if err != nil {
		return nil, err
	}
	if node.Corrupted && idx.OnCorrupted != nil {
		idx.OnCorrupted(off)
	}
	return node, nil
}

func decodeKey(raw []byte, width int) uint64 {
	if width == 4 {
		return uint64(binary.LittleEndian.Uint32(raw))
	}
	return binary.LittleEndian.Uint64(raw)
}

func (idx *Index[T]) decodeBranchEntry(raw []byte) BranchEntry {
	kw := idx.KeyWidth
	pw := idx.Variant.PointerWidth()
	key := decodeKey(raw[:kw], kw)
	childOffset := int64(decodeKey(raw[kw:kw+pw], pw))
	childBackPtr := pffprim.Identifier(decodeKey(raw[kw+pw:kw+2*pw], pw))
	return BranchEntry{Key: key, ChildOffset: childOffset, ChildBackPointer: childBackPtr}
}

// Get performs a key lookup with depth limit pffprim.MaxRecursionDepth
// (§4.5). A clean miss returns pfferrors.ErrNotFound, distinct from a
// structural failure (IoError/CorruptedError).
func (idx *Index[T]) Get(key uint64) (T, error) {
	return idx.get(key, idx.RootOffset, idx.RootBackPtr, 0)
}

func (idx *Index[T]) get(key uint64, off int64, backPtr pffprim.Identifier, depth int) (T, error) {
	var zero T
	if depth >= pffprim.MaxRecursionDepth {
		return zero, pfferrors.NewCorruptedError("index_get", "recursion depth exceeded at offset %d", off)
	}
	if idx.Abort != nil && idx.Abort() {
		return zero, pfferrors.ErrCancelled
	}

	node, err := idx.readNode(off, backPtr)
	if err != nil {
		return zero, err
	}

	if node.Header.IsLeaf() {
		for i := 0; i < node.NumEntries(); i++ {
			k, v, err := idx.Decode(node.Entry(i))
			if err != nil {
				return zero, err
			}
			if k == key {
				return v, nil
			}
		}
		return zero, pfferrors.ErrNotFound
	}

	// Branch: scan in order, descend into the last entry whose key is <= target.
	var chosen *BranchEntry
	for i := 0; i < node.NumEntries(); i++ {
		be := idx.decodeBranchEntry(node.Entry(i))
		if be.Key <= key {
			beCopy := be
			chosen = &beCopy
		} else {
			break
		}
	}
	if chosen == nil {
		return zero, pfferrors.ErrNotFound
	}
	return idx.get(key, chosen.ChildOffset, chosen.ChildBackPointer, depth+1)
}

// WalkLeaves visits every leaf entry reachable from the root, in
// page order, depth-limited the same way Get is. Used by the
// descriptor-to-item-tree linker's phase 1 full walk and by recovery
// to cross-check live entries it has already seen.
func (idx *Index[T]) WalkLeaves(visit func(key uint64, value T) error) error {
	return idx.walk(idx.RootOffset, idx.RootBackPtr, 0, visit)
}

func (idx *Index[T]) walk(off int64, backPtr pffprim.Identifier, depth int, visit func(key uint64, value T) error) error {
	if depth >= pffprim.MaxRecursionDepth {
		return pfferrors.NewCorruptedError("index_walk", "recursion depth exceeded at offset %d", off)
	}
	if idx.Abort != nil && idx.Abort() {
		return pfferrors.ErrCancelled
	}
	node, err := idx.readNode(off, backPtr)
	if err != nil {
		return err
	}
	if node.Header.IsLeaf() {
		for i := 0; i < node.NumEntries(); i++ {
			k, v, err := idx.Decode(node.Entry(i))
			if err != nil {
				return err
			}
			if err := visit(k, v); err != nil {
				return err
			}
		}
		return nil
	}
	for i := 0; i < node.NumEntries(); i++ {
		be := idx.decodeBranchEntry(node.Entry(i))
		if err := idx.walk(be.ChildOffset, be.ChildBackPointer, depth+1, visit); err != nil {
			return err
		}
	}
	return nil
}
