package pffindex

import (
	"encoding/binary"
	"testing"

	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pffsum"
	"github.com/libpff-rec/pff-rec/lib/pfftree"
)

type memFile struct{ data []byte }

func (m *memFile) Name() string { return "mem" }
func (m *memFile) Size() int64  { return int64(len(m.data)) }
func (m *memFile) Close() error { return nil }
func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, m.data[int(off):]), nil
}

func writeLeafPage(buf []byte, variant pffprim.Variant, magic uint16, entrySize uint8, entries []byte, backPtr pffprim.Identifier) {
	hs := pfftree.HeaderSize(variant)
	pageSize := variant.PageSize()
	copy(buf, entries)
	h := buf[pageSize-hs:]
	numEntries := 0
	if entrySize > 0 {
		numEntries = len(entries) / int(entrySize)
	}
	h[0] = entrySize
	binary.LittleEndian.PutUint16(h[1:3], 0)
	binary.LittleEndian.PutUint16(h[3:5], uint16(numEntries))
	binary.LittleEndian.PutUint16(h[5:7], uint16(numEntries))
	h[7] = 0 // leaf
	binary.LittleEndian.PutUint16(h[8:10], magic)
	switch variant.PointerWidth() {
	case 4:
		binary.LittleEndian.PutUint32(h[14:18], uint32(backPtr))
	case 8:
		binary.LittleEndian.PutUint64(h[14:22], uint64(backPtr))
	}
	crc := pffsum.Sum(h[:10])
	binary.LittleEndian.PutUint32(h[10:14], crc)
}

func TestDescriptorsIndexLookup(t *testing.T) {
	variant := pffprim.Variant32
	buf := make([]byte, variant.PageSize())

	entrySize := uint8(4 + 4 + 4 + 4) // nid + bid(4) + bid(4) + parent nid
	entry := make([]byte, entrySize)
	binary.LittleEndian.PutUint32(entry[0:4], 42)    // identifier
	binary.LittleEndian.PutUint32(entry[4:8], 1001)  // data identifier
	binary.LittleEndian.PutUint32(entry[8:12], 2002) // local descriptors identifier
	binary.LittleEndian.PutUint32(entry[12:16], 42)  // self-parented root

	writeLeafPage(buf, variant, DescriptorsIndexMagic, entrySize, entry, pffprim.Identifier(0x77))

	idx := NewDescriptorsIndex(&memFile{data: buf}, variant, 0, pffprim.Identifier(0x77), true)
	leaf, err := idx.GetByIdentifier(pffprim.Identifier(42))
	if err != nil {
		t.Fatal(err)
	}
	if leaf.DataIdentifier != pffprim.Identifier(1001) {
		t.Fatalf("DataIdentifier = %v, want 1001", leaf.DataIdentifier)
	}
	if leaf.ParentIdentifier != leaf.Identifier {
		t.Fatal("expected self-parented root")
	}
}

func TestOffsetsIndexLookup(t *testing.T) {
	variant := pffprim.Variant32
	buf := make([]byte, variant.PageSize())

	entrySize := uint8(4 + 4 + 4 + 2)
	entry := make([]byte, entrySize)
	binary.LittleEndian.PutUint32(entry[0:4], 1001) // identifier
	binary.LittleEndian.PutUint32(entry[4:8], 8192)  // file offset
	binary.LittleEndian.PutUint32(entry[8:12], 256)  // data size
	binary.LittleEndian.PutUint16(entry[12:14], 1)   // reference count

	writeLeafPage(buf, variant, OffsetsIndexMagic, entrySize, entry, pffprim.Identifier(0x88))

	idx := NewOffsetsIndex(&memFile{data: buf}, variant, 0, pffprim.Identifier(0x88), true)
	leaf, err := idx.GetByIdentifier(pffprim.Identifier(1001))
	if err != nil {
		t.Fatal(err)
	}
	if leaf.FileOffset != 8192 || leaf.DataSize != 256 {
		t.Fatalf("unexpected leaf: %+v", leaf)
	}
}
