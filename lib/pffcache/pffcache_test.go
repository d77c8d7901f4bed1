package pffcache

import "testing"

type memFile struct {
	data  []byte
	reads int
}

func (m *memFile) Name() string { return "mem" }
func (m *memFile) Size() int64  { return int64(len(m.data)) }
func (m *memFile) Close() error { return nil }
func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	m.reads++
	return copy(p, m.data[int(off):]), nil
}

func TestCachingFileServesRepeatReadFromCache(t *testing.T) {
	mf := &memFile{data: []byte("0123456789abcdef")}
	cf := Wrap(mf, 0)

	p1 := make([]byte, 4)
	if _, err := cf.ReadAt(p1, 2); err != nil {
		t.Fatal(err)
	}
	if string(p1) != "2345" {
		t.Fatalf("got %q", p1)
	}
	if mf.reads != 1 {
		t.Fatalf("reads = %d, want 1", mf.reads)
	}

	p2 := make([]byte, 4)
	if _, err := cf.ReadAt(p2, 2); err != nil {
		t.Fatal(err)
	}
	if string(p2) != "2345" {
		t.Fatalf("got %q", p2)
	}
	if mf.reads != 1 {
		t.Fatalf("reads = %d after cached hit, want still 1", mf.reads)
	}
	if cf.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", cf.Len())
	}
}

func TestCachingFileDistinguishesLength(t *testing.T) {
	mf := &memFile{data: []byte("0123456789abcdef")}
	cf := Wrap(mf, 0)

	p1 := make([]byte, 2)
	cf.ReadAt(p1, 0)
	p2 := make([]byte, 4)
	cf.ReadAt(p2, 0)

	if mf.reads != 2 {
		t.Fatalf("reads = %d, want 2 (different lengths must not collide)", mf.reads)
	}
}

func TestCachingFileEvictsUnderPressure(t *testing.T) {
	mf := &memFile{data: make([]byte, 1024)}
	cf := Wrap(mf, 2)

	buf := make([]byte, 4)
	cf.ReadAt(buf, 0)
	cf.ReadAt(buf, 4)
	cf.ReadAt(buf, 8)

	if cf.Len() > 2 {
		t.Fatalf("Len() = %d, want at most 2", cf.Len())
	}
}
