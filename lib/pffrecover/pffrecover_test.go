package pffrecover

import (
	"encoding/binary"
	"testing"

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
	if off < 0 || int(off) >= len(m.data) {
		return 0, nil
	}
	return copy(p, m.data[int(off):]), nil
}

func writeDescriptorsPage(buf []byte, pageOff int64, variant pffprim.Variant, id, parent uint32, backPtr pffprim.Identifier) {
	entrySize := uint8(16)
	entry := make([]byte, entrySize)
	binary.LittleEndian.PutUint32(entry[0:4], id)
	binary.LittleEndian.PutUint32(entry[12:16], parent)

	hs := pfftree.HeaderSize(variant)
	pageSize := variant.PageSize()
	page := buf[pageOff : pageOff+int64(pageSize)]
	copy(page, entry)
	h := page[pageSize-hs:]
	h[0] = entrySize
	binary.LittleEndian.PutUint16(h[1:3], 0)
	binary.LittleEndian.PutUint16(h[3:5], 1)
	binary.LittleEndian.PutUint16(h[5:7], 1)
	h[7] = 0
	binary.LittleEndian.PutUint16(h[8:10], pffindex.DescriptorsIndexMagic)
	binary.LittleEndian.PutUint32(h[14:18], uint32(backPtr))
	crc := pffsum.Sum(h[:10])
	binary.LittleEndian.PutUint32(h[10:14], crc)
}

func TestScanFindsOrphanedDescriptorLeaf(t *testing.T) {
	variant := pffprim.Variant32
	pageSize := variant.PageSize()
	buf := make([]byte, pageSize*3)

	// A live leaf page survives only in the middle of a file that has
	// otherwise lost its index root; the scan has no a priori back
	// pointer to check it against.
	writeDescriptorsPage(buf, int64(pageSize), variant, 7, 7, pffprim.Identifier(0xDEAD))

	s := &Scanner{File: &memFile{data: buf}, Variant: variant}
	res, err := s.Scan([]ByteRange{{Start: 0, End: int64(len(buf))}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Tree.Root == nil {
		t.Fatal("expected the recovered candidate to become the recovered tree's root")
	}
	if res.Tree.Root.Identifier != pffprim.Identifier(7) {
		t.Fatalf("Identifier = %v, want 7", res.Tree.Root.Identifier)
	}
	if !res.Tree.Root.Recovered {
		t.Fatal("expected Recovered flag to be set")
	}
}

func TestScanSkipsNonLeafAndGarbage(t *testing.T) {
	variant := pffprim.Variant32
	pageSize := variant.PageSize()
	buf := make([]byte, pageSize*2)
	for i := range buf {
		buf[i] = byte(i)
	}

	s := &Scanner{File: &memFile{data: buf}, Variant: variant}
	res, err := s.Scan([]ByteRange{{Start: 0, End: int64(len(buf))}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Tree.Root != nil || len(res.Tree.Orphans) != 0 {
		t.Fatal("expected no recovered items from random bytes")
	}
}

func TestUnallocatedRangesSkipsLivePages(t *testing.T) {
	pageSize := 512
	fileSize := int64(pageSize * 4)
	table := make(AllocationTable, 1)
	table[0] = 0b0000_0110 // pages 1 and 2 allocated, 0 and 3 free

	ranges := UnallocatedRanges(table, fileSize, pageSize)
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2: %+v", len(ranges), ranges)
	}
	if ranges[0].Start != 0 || ranges[0].End != int64(pageSize) {
		t.Fatalf("unexpected first range: %+v", ranges[0])
	}
	if ranges[1].Start != int64(pageSize*3) || ranges[1].End != fileSize {
		t.Fatalf("unexpected second range: %+v", ranges[1])
	}
}

func TestScanAbortStopsEarly(t *testing.T) {
	variant := pffprim.Variant32
	pageSize := variant.PageSize()
	buf := make([]byte, pageSize*2)
	writeDescriptorsPage(buf, int64(pageSize), variant, 1, 1, pffprim.Identifier(0))

	s := &Scanner{File: &memFile{data: buf}, Variant: variant, Abort: func() bool { return true }}
	_, err := s.Scan([]ByteRange{{Start: 0, End: int64(len(buf))}})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
