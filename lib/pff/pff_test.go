package pff

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pffindex"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pffsum"
	"github.com/libpff-rec/pff-rec/lib/pfftree"
)

type memFile struct{ data []byte }

func (m *memFile) Name() string { return "mem" }
func (m *memFile) Size() int64  { return int64(len(m.data)) }
func (m *memFile) Close() error { return nil }
func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, m.data[int(off):])
	if n < len(p) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

const variant = pffprim.Variant32

// writeHeader lays out the fixed file header pffheader.Read expects.
func writeHeader(buf []byte, fileSize, descRootOff, offRootOff int64, descBackPtr, offBackPtr pffprim.Identifier) {
	copy(buf[0:4], []byte{'!', 'B', 'D', 'N'})
	buf[0x08] = 0x53 // PST
	buf[0x0A] = 0x0E // 32-bit
	buf[0x0B] = 0x00 // no encryption
	binary.LittleEndian.PutUint64(buf[0x0C:0x14], uint64(fileSize))
	binary.LittleEndian.PutUint64(buf[0x14:0x1C], uint64(descRootOff))
	binary.LittleEndian.PutUint64(buf[0x1C:0x24], uint64(descBackPtr))
	binary.LittleEndian.PutUint64(buf[0x24:0x2C], uint64(offRootOff))
	binary.LittleEndian.PutUint64(buf[0x2C:0x34], uint64(offBackPtr))
}

type descRow struct{ id, data, ldt, parent uint32 }

func writeDescriptorsPage(buf []byte, off int64, rows []descRow, backPtr pffprim.Identifier) {
	page := buf[off : off+int64(variant.PageSize())]
	entrySize := uint8(16)
	var raw []byte
	for _, r := range rows {
		b := make([]byte, entrySize)
		binary.LittleEndian.PutUint32(b[0:4], r.id)
		binary.LittleEndian.PutUint32(b[4:8], r.data)
		binary.LittleEndian.PutUint32(b[8:12], r.ldt)
		binary.LittleEndian.PutUint32(b[12:16], r.parent)
		raw = append(raw, b...)
	}
	copy(page, raw)
	writeNodeHeader(page, entrySize, uint16(len(rows)), pffindex.DescriptorsIndexMagic, backPtr)
}

type offsetRow struct {
	id       uint32
	fileOff  int64
	dataSize int32
	refCount uint16
}

func writeOffsetsPage(buf []byte, off int64, rows []offsetRow, backPtr pffprim.Identifier) {
	page := buf[off : off+int64(variant.PageSize())]
	entrySize := uint8(14)
	var raw []byte
	for _, r := range rows {
		b := make([]byte, entrySize)
		binary.LittleEndian.PutUint32(b[0:4], r.id)
		binary.LittleEndian.PutUint32(b[4:8], uint32(r.fileOff))
		binary.LittleEndian.PutUint32(b[8:12], uint32(r.dataSize))
		binary.LittleEndian.PutUint16(b[12:14], r.refCount)
		raw = append(raw, b...)
	}
	copy(page, raw)
	writeNodeHeader(page, entrySize, uint16(len(rows)), 0x4242, backPtr)
}

func writeNodeHeader(page []byte, entrySize uint8, numEntries uint16, magic uint16, backPtr pffprim.Identifier) {
	hs := pfftree.HeaderSize(variant)
	h := page[len(page)-hs:]
	h[0] = entrySize
	binary.LittleEndian.PutUint16(h[1:3], 0)
	binary.LittleEndian.PutUint16(h[3:5], numEntries)
	binary.LittleEndian.PutUint16(h[5:7], numEntries)
	h[7] = 0 // leaf
	binary.LittleEndian.PutUint16(h[8:10], magic)
	binary.LittleEndian.PutUint32(h[14:18], uint32(backPtr))
	crc := pffsum.Sum(h[:10])
	binary.LittleEndian.PutUint32(h[10:14], crc)
}

func writeDataBlock(buf []byte, off int64, payload []byte, backPtr pffprim.Identifier) {
	block := buf[off : off+int64(len(payload))+int64(variant.TrailerSize())]
	copy(block, payload)
	tr := block[len(payload):]
	binary.LittleEndian.PutUint16(tr[0:2], uint16(len(payload)))
	tr[2] = 0xba // trailer signature
	crc := pffsum.Sum(payload)
	binary.LittleEndian.PutUint32(tr[4:8], crc)
	binary.LittleEndian.PutUint32(tr[8:12], uint32(backPtr))
}

// buildMinimalContainer lays out a root descriptor (self-parented, no
// payload) with one child carrying a small data stream, matching the
// "minimal container with a root folder" scenario.
func buildMinimalContainer(t *testing.T, payload []byte) ([]byte, pffdiskio.File) {
	t.Helper()
	const (
		descRootOff = 512
		offRootOff  = 1024
		blockOff    = 1536
	)
	fileSize := blockOff + int64(len(payload)) + int64(variant.TrailerSize())
	buf := make([]byte, fileSize)

	writeHeader(buf, fileSize, descRootOff, offRootOff, pffprim.Identifier(0xAAAA), pffprim.Identifier(0xBBBB))

	writeDescriptorsPage(buf, descRootOff, []descRow{
		{id: 1, data: 0, ldt: 0, parent: 1},
		{id: 2, data: 100, ldt: 0, parent: 1},
	}, pffprim.Identifier(0xAAAA))

	writeOffsetsPage(buf, offRootOff, []offsetRow{
		{id: 100, fileOff: blockOff, dataSize: int32(len(payload)), refCount: 1},
	}, pffprim.Identifier(0xBBBB))

	writeDataBlock(buf, blockOff, payload, pffprim.Identifier(100))

	return buf, &memFile{data: buf}
}

func TestOpenMinimalContainerAndReadRootFolder(t *testing.T) {
	payload := []byte("hello, pff-rec")
	_, f := buildMinimalContainer(t, payload)

	c, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if c.IsCorrupted() {
		t.Fatal("unexpectedly corrupted")
	}

	root, err := c.RootItem()
	if err != nil {
		t.Fatalf("RootItem: %v", err)
	}
	if root.Identifier != pffprim.Identifier(1) {
		t.Fatalf("root identifier = %s, want 1", root.Identifier)
	}

	children := c.Children(root)
	if len(children) != 1 || children[0].Identifier != pffprim.Identifier(2) {
		t.Fatalf("unexpected children: %+v", children)
	}

	stream, err := c.DataStream(children[0].Identifier)
	if err != nil {
		t.Fatalf("DataStream: %v", err)
	}
	if stream.Size() != int64(len(payload)) {
		t.Fatalf("Size() = %d, want %d", stream.Size(), len(payload))
	}
	got, err := stream.Read(0, len(payload))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("Read = %q, want %q", got, payload)
	}
}

func TestSetCodepageRejectsUnrecognized(t *testing.T) {
	_, f := buildMinimalContainer(t, []byte("x"))
	c, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if err := c.SetCodepage(1252); err != nil {
		t.Fatalf("SetCodepage(1252): %v", err)
	}
	if c.GetCodepage() != 1252 {
		t.Fatalf("GetCodepage() = %d, want 1252", c.GetCodepage())
	}

	err = c.SetCodepage(31337)
	if !IsArgumentError(err) {
		t.Fatalf("expected ArgumentError for unrecognized codepage, got %v", err)
	}
	if c.GetCodepage() != 1252 {
		t.Fatal("SetCodepage must not change the codepage on failure")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	_, f := buildMinimalContainer(t, []byte("x"))
	c, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := c.RootItem(); err == nil {
		t.Fatal("expected error navigating a closed container")
	}
}

func TestSignalAbortCancelsInFlightDataStream(t *testing.T) {
	payload := []byte("hello, pff-rec")
	_, f := buildMinimalContainer(t, payload)
	c, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	c.SignalAbort()
	_, err = c.DataStream(pffprim.Identifier(2))
	if !IsCancelled(err) {
		t.Fatalf("expected CancelledError, got %v", err)
	}

	// The flag clears itself so the next call starts fresh.
	stream, err := c.DataStream(pffprim.Identifier(2))
	if err != nil {
		t.Fatalf("expected DataStream to succeed after abort cleared: %v", err)
	}
	if stream.Size() != int64(len(payload)) {
		t.Fatalf("Size() = %d, want %d", stream.Size(), len(payload))
	}
}

func TestOrphanedDescriptorIsReachableButFlaggedCorrupted(t *testing.T) {
	const (
		descRootOff = 512
		offRootOff  = 1024
	)
	fileSize := int64(offRootOff + variant.PageSize())
	buf := make([]byte, fileSize)
	writeHeader(buf, fileSize, descRootOff, offRootOff, pffprim.Identifier(0xAAAA), pffprim.Identifier(0xBBBB))
	writeDescriptorsPage(buf, descRootOff, []descRow{
		{id: 1, parent: 1},
		{id: 99, parent: 500}, // parent 500 doesn't exist: orphan
	}, pffprim.Identifier(0xAAAA))
	writeOffsetsPage(buf, offRootOff, nil, pffprim.Identifier(0xBBBB))

	c, err := Open(&memFile{data: buf})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if !c.IsCorrupted() {
		t.Fatal("expected container to be marked corrupted due to an orphan")
	}
	if c.NumberOfOrphans() != 1 {
		t.Fatalf("NumberOfOrphans() = %d, want 1", c.NumberOfOrphans())
	}
	orphan, err := c.Orphan(0)
	if err != nil {
		t.Fatalf("Orphan(0): %v", err)
	}
	if orphan.Identifier != pffprim.Identifier(99) {
		t.Fatalf("unexpected orphan: %+v", orphan)
	}

	// Still reachable by identifier despite not hanging off the root.
	item, err := c.ItemByIdentifier(pffprim.Identifier(99))
	if err != nil {
		t.Fatalf("ItemByIdentifier(99): %v", err)
	}
	if !item.Recovered && item.ParentIdentifier != pffprim.Identifier(500) {
		t.Fatalf("unexpected orphan parent: %+v", item)
	}
}

func TestDataStreamNotFoundForUnknownDescriptor(t *testing.T) {
	_, f := buildMinimalContainer(t, []byte("x"))
	c, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	_, err = c.DataStream(pffprim.Identifier(9999))
	if !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
