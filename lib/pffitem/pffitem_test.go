package pffitem

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
	return copy(p, m.data[int(off):]), nil
}

type descRow struct {
	id, data, ldt, parent uint32
}

func writeDescriptorsPage(buf []byte, variant pffprim.Variant, rows []descRow, backPtr pffprim.Identifier) {
	entrySize := uint8(4 + 4 + 4 + 4)
	var raw []byte
	for _, r := range rows {
		b := make([]byte, entrySize)
		binary.LittleEndian.PutUint32(b[0:4], r.id)
		binary.LittleEndian.PutUint32(b[4:8], r.data)
		binary.LittleEndian.PutUint32(b[8:12], r.ldt)
		binary.LittleEndian.PutUint32(b[12:16], r.parent)
		raw = append(raw, b...)
	}
	hs := pfftree.HeaderSize(variant)
	pageSize := variant.PageSize()
	copy(buf, raw)
	h := buf[pageSize-hs:]
	h[0] = entrySize
	binary.LittleEndian.PutUint16(h[1:3], 0)
	binary.LittleEndian.PutUint16(h[3:5], uint16(len(rows)))
	binary.LittleEndian.PutUint16(h[5:7], uint16(len(rows)))
	h[7] = 0
	binary.LittleEndian.PutUint16(h[8:10], pffindex.DescriptorsIndexMagic)
	binary.LittleEndian.PutUint32(h[14:18], uint32(backPtr))
	crc := pffsum.Sum(h[:10])
	binary.LittleEndian.PutUint32(h[10:14], crc)
}

func TestBuildFromIndexLinksTreeAndOrphan(t *testing.T) {
	variant := pffprim.Variant32
	buf := make([]byte, variant.PageSize())

	rows := []descRow{
		{id: 1, data: 10, parent: 1},   // self-parented root
		{id: 3, data: 30, parent: 2},   // grandchild, parent linked later than child in walk order
		{id: 2, data: 20, parent: 1},   // child of root
		{id: 99, data: 40, parent: 500}, // orphan: parent 500 doesn't exist
	}
	writeDescriptorsPage(buf, variant, rows, pffprim.Identifier(0x55))

	idx := pffindex.NewDescriptorsIndex(&memFile{data: buf}, variant, 0, pffprim.Identifier(0x55), true)
	tree, err := BuildFromIndex(idx)
	if err != nil {
		t.Fatal(err)
	}

	if tree.Root == nil || tree.Root.Identifier != pffprim.Identifier(1) {
		t.Fatalf("unexpected root: %+v", tree.Root)
	}
	child, ok := tree.Root.Children.Load(pffprim.Identifier(2))
	if !ok {
		t.Fatal("expected identifier 2 to be linked as root's child")
	}
	grandchild, ok := child.Children.Load(pffprim.Identifier(3))
	if !ok {
		t.Fatal("expected identifier 3 to be linked as 2's child")
	}
	if grandchild.DataIdentifier != pffprim.Identifier(30) {
		t.Fatalf("unexpected grandchild data identifier: %v", grandchild.DataIdentifier)
	}

	if len(tree.Orphans) != 1 || tree.Orphans[0].Identifier != pffprim.Identifier(99) {
		t.Fatalf("expected one orphan with identifier 99, got %+v", tree.Orphans)
	}
	if tree.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", tree.Len())
	}
}

func TestBuildFromIndexRejectsSecondRoot(t *testing.T) {
	variant := pffprim.Variant32
	buf := make([]byte, variant.PageSize())

	rows := []descRow{
		{id: 1, parent: 1},
		{id: 2, parent: 2}, // second self-parented root
	}
	writeDescriptorsPage(buf, variant, rows, pffprim.Identifier(0x55))

	idx := pffindex.NewDescriptorsIndex(&memFile{data: buf}, variant, 0, pffprim.Identifier(0x55), true)
	_, err := BuildFromIndex(idx)
	if err == nil {
		t.Fatal("expected error for second self-parented root")
	}
}

func TestInsertRecoveredBuildsParallelTree(t *testing.T) {
	tree := NewRecoveredTree()
	root := pffindex.DescriptorLeaf{Identifier: 1, ParentIdentifier: 1}
	child := pffindex.DescriptorLeaf{Identifier: 2, ParentIdentifier: 1}

	if err := tree.InsertRecovered(root); err != nil {
		t.Fatal(err)
	}
	if err := tree.InsertRecovered(child); err != nil {
		t.Fatal(err)
	}

	if tree.Root == nil || !tree.Root.Recovered {
		t.Fatal("expected recovered root to be marked Recovered")
	}
	got, ok := tree.Root.Children.Load(pffprim.Identifier(2))
	if !ok || !got.Recovered {
		t.Fatal("expected recovered child linked under root")
	}
}

func TestInsertRecoveredRejectsOnLiveTree(t *testing.T) {
	variant := pffprim.Variant32
	buf := make([]byte, variant.PageSize())
	writeDescriptorsPage(buf, variant, []descRow{{id: 1, parent: 1}}, pffprim.Identifier(0x55))
	idx := pffindex.NewDescriptorsIndex(&memFile{data: buf}, variant, 0, pffprim.Identifier(0x55), true)
	tree, err := BuildFromIndex(idx)
	if err != nil {
		t.Fatal(err)
	}
	if err := tree.InsertRecovered(pffindex.DescriptorLeaf{Identifier: 9, ParentIdentifier: 9}); err == nil {
		t.Fatal("expected error inserting a recovered leaf into a live tree")
	}
}
