package pffstream

import (
	"bytes"
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

func putBlock(buf []byte, off int64, variant pffprim.Variant, payload []byte, backPtr pffprim.Identifier) {
	copy(buf[off:], payload)
	tr := buf[int(off)+len(payload):]
	binary.LittleEndian.PutUint16(tr[0:2], uint16(len(payload)))
	tr[2] = 0xba
	binary.LittleEndian.PutUint32(tr[4:8], pffsum.Sum(payload))
	binary.LittleEndian.PutUint32(tr[8:12], uint32(backPtr))
}

func writeOffsetsLeafPage(buf []byte, variant pffprim.Variant, entries []offsetsEntry, backPtr pffprim.Identifier) {
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
	hs := 18 // HeaderSize(Variant32)
	pageSize := variant.PageSize()
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

type offsetsEntry struct {
	id      pffprim.Identifier
	fileOff int64
	size    int32
}

func TestSingleBlockNoEncryption(t *testing.T) {
	variant := pffprim.Variant32
	pageSize := variant.PageSize()
	// Layout: [0, pageSize) offsets index page; [pageSize, ...) payload block.
	buf := make([]byte, pageSize*2)

	dataID := pffprim.Identifier(0x20) // internal bit clear
	payload := []byte("plain bytes, no encryption")
	blockOff := int64(pageSize)
	putBlock(buf, blockOff, variant, payload, dataID)

	writeOffsetsLeafPage(buf[:pageSize], variant, []offsetsEntry{
		{id: dataID, fileOff: blockOff, size: int32(len(payload))},
	}, pffprim.Identifier(0x999))

	offsetsIdx := pffindex.NewOffsetsIndex(&memFile{data: buf}, variant, 0, pffprim.Identifier(0x999), true)

	s, err := New(&memFile{data: buf}, variant, offsetsIdx, dataID, pffprim.EncryptionNone, pffprim.NodeTypeMessage, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != int64(len(payload)) {
		t.Fatalf("Size() = %d, want %d", s.Size(), len(payload))
	}
	got, err := s.Read(0, len(payload))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q want %q", got, payload)
	}

	// Second read should hit the cache and return the same bytes.
	got2, err := s.Read(5, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got2, payload[5:9]) {
		t.Fatalf("partial read mismatch: got %q want %q", got2, payload[5:9])
	}
}

func TestEmptyStream(t *testing.T) {
	variant := pffprim.Variant32
	buf := make([]byte, variant.PageSize())
	offsetsIdx := pffindex.NewOffsetsIndex(&memFile{data: buf}, variant, 0, pffprim.Identifier(0), true)

	s, err := New(&memFile{data: buf}, variant, offsetsIdx, pffprim.Identifier(0), pffprim.EncryptionNone, pffprim.NodeTypeMessage, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if s.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", s.Size())
	}
}
