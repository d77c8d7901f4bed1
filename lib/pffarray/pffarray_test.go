package pffarray

import (
	"encoding/binary"
	"testing"

	"github.com/libpff-rec/pff-rec/lib/pffindex"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pffsum"
)

type memFile struct{ data []byte }

func (m *memFile) Name() string { return "mem" }
func (m *memFile) Size() int64  { return int64(len(m.data)) }
func (m *memFile) Close() error { return nil }
func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, m.data[int(off):]), nil
}

func putBlock(buf []byte, off int64, payload []byte, backPtr pffprim.Identifier) {
	copy(buf[off:], payload)
	tr := buf[int(off)+len(payload):]
	binary.LittleEndian.PutUint16(tr[0:2], uint16(len(payload)))
	tr[2] = 0xba
	binary.LittleEndian.PutUint32(tr[4:8], pffsum.Sum(payload))
	binary.LittleEndian.PutUint32(tr[8:12], uint32(backPtr))
}

type offsetsEntry struct {
	id      pffprim.Identifier
	fileOff int64
	size    int32
}

func writeOffsetsLeafPage(buf []byte, entries []offsetsEntry, backPtr pffprim.Identifier) {
	entrySize := uint8(4 + 4 + 4 + 2)
	var raw []byte
	for _, e := range entries {
		b := make([]byte, entrySize)
		binary.LittleEndian.PutUint32(b[0:4], uint32(e.id))
		binary.LittleEndian.PutUint32(b[4:8], uint32(e.fileOff))
		binary.LittleEndian.PutUint32(b[8:12], uint32(e.size))
		binary.LittleEndian.PutUint16(b[12:14], 1)
		raw = append(raw, b...)
	}
	hs := 18
	pageSize := pffprim.Variant32.PageSize()
	copy(buf, raw)
	h := buf[pageSize-hs:]
	h[0] = entrySize
	binary.LittleEndian.PutUint16(h[1:3], 0)
	binary.LittleEndian.PutUint16(h[3:5], uint16(len(entries)))
	binary.LittleEndian.PutUint16(h[5:7], uint16(len(entries)))
	h[7] = 0
	binary.LittleEndian.PutUint16(h[8:10], pffindex.OffsetsIndexMagic)
	binary.LittleEndian.PutUint32(h[14:18], uint32(backPtr))
	crc := pffsum.Sum(h[:10])
	binary.LittleEndian.PutUint32(h[10:14], crc)
}

func TestResolveSingleLevelArray(t *testing.T) {
	variant := pffprim.Variant32
	pageSize := variant.PageSize()

	// Layout: [0,pageSize) offsets index; then array descriptor block,
	// then two leaf payload blocks, each page-aligned for simplicity.
	buf := make([]byte, pageSize*4)

	leaf1 := []byte("hello ")
	leaf2 := []byte("world!")
	leaf1Off := int64(pageSize)
	leaf2Off := int64(pageSize * 2)
	arrayOff := int64(pageSize * 3)

	leaf1ID := pffprim.Identifier(0x10)
	leaf2ID := pffprim.Identifier(0x12)
	arrayID := pffprim.Identifier(0x14)

	putBlock(buf, leaf1Off, leaf1, leaf1ID)
	putBlock(buf, leaf2Off, leaf2, leaf2ID)

	arrayDesc := make([]byte, 8+2*4)
	arrayDesc[0] = arraySignature
	arrayDesc[1] = 1 // level
	binary.LittleEndian.PutUint16(arrayDesc[2:4], 2)
	binary.LittleEndian.PutUint32(arrayDesc[4:8], uint32(len(leaf1)+len(leaf2)))
	binary.LittleEndian.PutUint32(arrayDesc[8:12], uint32(leaf1ID))
	binary.LittleEndian.PutUint32(arrayDesc[12:16], uint32(leaf2ID))
	putBlock(buf, arrayOff, arrayDesc, arrayID)

	writeOffsetsLeafPage(buf[:pageSize], []offsetsEntry{
		{id: leaf1ID, fileOff: leaf1Off, size: int32(len(leaf1))},
		{id: leaf2ID, fileOff: leaf2Off, size: int32(len(leaf2))},
		{id: arrayID, fileOff: arrayOff, size: int32(len(arrayDesc))},
	}, pffprim.Identifier(0xFE))

	f := &memFile{data: buf}
	offsetsIdx := pffindex.NewOffsetsIndex(f, variant, 0, pffprim.Identifier(0xFE), true)

	arr, err := Resolve(f, variant, offsetsIdx, arrayID, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(arr.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(arr.Entries))
	}
	if arr.TotalSize != int64(len(leaf1)+len(leaf2)) {
		t.Fatalf("TotalSize = %d, want %d", arr.TotalSize, len(leaf1)+len(leaf2))
	}
	if arr.Entries[0].FileOffset != leaf1Off || arr.Entries[1].FileOffset != leaf2Off {
		t.Fatalf("unexpected entry offsets: %+v", arr.Entries)
	}
}

func TestResolveRejectsSizeMismatch(t *testing.T) {
	variant := pffprim.Variant32
	pageSize := variant.PageSize()
	buf := make([]byte, pageSize*2)

	leaf1 := []byte("short")
	leaf1Off := int64(pageSize)
	leaf1ID := pffprim.Identifier(0x10)
	arrayID := pffprim.Identifier(0x14)

	putBlock(buf, leaf1Off, leaf1, leaf1ID)

	arrayDesc := make([]byte, 8+4)
	arrayDesc[0] = arraySignature
	arrayDesc[1] = 1
	binary.LittleEndian.PutUint16(arrayDesc[2:4], 1)
	binary.LittleEndian.PutUint32(arrayDesc[4:8], 999) // wrong declared total
	binary.LittleEndian.PutUint32(arrayDesc[8:12], uint32(leaf1ID))

	arrayOff := int64(pageSize)
	buf = append(buf, make([]byte, pageSize)...)
	arrayOff = int64(len(buf)) - int64(pageSize)
	putBlock(buf, arrayOff, arrayDesc, arrayID)

	writeOffsetsLeafPage(buf[:pageSize], []offsetsEntry{
		{id: leaf1ID, fileOff: leaf1Off, size: int32(len(leaf1))},
		{id: arrayID, fileOff: arrayOff, size: int32(len(arrayDesc))},
	}, pffprim.Identifier(0xFE))

	f := &memFile{data: buf}
	offsetsIdx := pffindex.NewOffsetsIndex(f, variant, 0, pffprim.Identifier(0xFE), true)

	_, err := Resolve(f, variant, offsetsIdx, arrayID, true)
	if err == nil {
		t.Fatal("expected error for mismatched declared total size")
	}
}
