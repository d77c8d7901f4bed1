package pfftree

import (
	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// Node is one decoded index page: its validated header, plus the raw
// entry area sliced out so callers can decode individual entries
// without re-reading the page.
type Node struct {
	Header  Header
	Entries []byte // NumberOfEntries * EntrySize bytes

	// Corrupted is set when the page's header CRC did not verify
	// but strict mode was off, so the node was accepted anyway
	// (§4.13 "CRC mismatch in tolerant mode"). Never set when
	// strict is on: a CRC mismatch under strict is a hard
	// CorruptedError instead.
	Corrupted bool
}

// ReadNode reads and validates the page of size variant.PageSize()
// at off, checking its signature against magic and its header
// back-pointer against expectBackPointer (the offsets-index
// identifier, or the descriptor's local-descriptors identifier, that
// addressed this page). In strict mode a header CRC mismatch fails
// with CorruptedError; in tolerant mode the mismatch is recorded on
// Node.Corrupted and the page is still returned, mirroring
// lib/pffblock's tolerant-CRC handling at the block layer.
func ReadNode(f pffdiskio.File, variant pffprim.Variant, off int64, magic uint16, expectBackPointer pffprim.Identifier, strict bool) (*Node, error) {
	node, err := readNode(f, variant, off, magic, strict)
	if err != nil {
		return nil, err
	}
	if node.Header.BackPointer != expectBackPointer {
		return nil, pfferrors.NewCorruptedError("read_node", "back-pointer %s does not match expected %s", node.Header.BackPointer, expectBackPointer)
	}
	return node, nil
}

// ReadNodeAny validates a page's signature, entry-area bounds, and
// header CRC exactly like ReadNode in strict mode, but without
// checking the back-pointer. Used by the recovery scanner, which
// finds candidate pages by signature alone and has no expected
// back-pointer to check them against until after a candidate is
// already accepted; a candidate with a bad header CRC is never worth
// accepting; whatever bytes the signature matched are too unreliable
// to trust, so this never runs tolerant.
func ReadNodeAny(f pffdiskio.File, variant pffprim.Variant, off int64, magic uint16) (*Node, error) {
	return readNode(f, variant, off, magic, true)
}

func readNode(f pffdiskio.File, variant pffprim.Variant, off int64, magic uint16, strict bool) (*Node, error) {
	pageSize := variant.PageSize()
	buf := make([]byte, pageSize)
	if err := pffdiskio.ReadAt(f, buf, off); err != nil {
		return nil, pfferrors.NewIoError("read_node", err)
	}

	hs := HeaderSize(variant)
	header, corrupted, err := parseHeader(buf[pageSize-hs:], variant, magic, pageSize, strict)
	if err != nil {
		return nil, err
	}

	entryAreaEnd := int(header.EntryOffset) + int(header.NumberOfEntries)*int(header.EntrySize)
	return &Node{
		Header:    header,
		Entries:   buf[header.EntryOffset:entryAreaEnd],
		Corrupted: corrupted,
	}, nil
}

// Entry returns the raw bytes of the i'th entry.
func (n *Node) Entry(i int) []byte {
	sz := int(n.Header.EntrySize)
	return n.Entries[i*sz : (i+1)*sz]
}

// NumEntries is the number of entries on this page.
func (n *Node) NumEntries() int { return int(n.Header.NumberOfEntries) }
