package propset

import (
	"encoding/binary"
	"testing"

	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

func buildTable(recordCount uint16, valuesArrayID uint32, entries [][2]uint32) []byte {
	buf := make([]byte, headerSize+len(entries)*entrySize)
	binary.LittleEndian.PutUint16(buf[0:2], 0)
	buf[2] = pffprim.TableSignatureByte3
	buf[3] = 0x7C
	binary.LittleEndian.PutUint16(buf[4:6], recordCount)
	binary.LittleEndian.PutUint32(buf[6:10], valuesArrayID)
	for i, e := range entries {
		off := headerSize + i*entrySize
		binary.LittleEndian.PutUint32(buf[off:off+4], e[0])
		binary.LittleEndian.PutUint32(buf[off+4:off+8], e[1])
	}
	return buf
}

func TestDecodeFixedSizeProperties(t *testing.T) {
	buf := buildTable(2, 0x4242, [][2]uint32{
		{0x3001001F, 0}, // PR_DISPLAY_NAME, unicode: variable-size
		{0x0E080003, 12345},
	})

	tbl, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.TableType != 0x7C {
		t.Fatalf("TableType = %#x, want 0x7c", tbl.TableType)
	}
	if tbl.ValuesArrayIdentifier != pffprim.Identifier(0x4242) {
		t.Fatalf("ValuesArrayIdentifier = %s, want 0x4242", tbl.ValuesArrayIdentifier)
	}
	if len(tbl.Properties) != 2 {
		t.Fatalf("len(Properties) = %d, want 2", len(tbl.Properties))
	}
	if !tbl.Properties[0].IsVariableSize() {
		t.Fatal("expected PT_UNICODE property to be variable-size")
	}
	if tbl.Properties[1].IsVariableSize() {
		t.Fatal("did not expect a plain integer property to be variable-size")
	}
	gotVal := binary.LittleEndian.Uint32(tbl.Properties[1].Value)
	if gotVal != 12345 {
		t.Fatalf("fixed value = %d, want 12345", gotVal)
	}
}

func TestDecodeRejectsMissingSignature(t *testing.T) {
	buf := buildTable(0, 0, nil)
	buf[2] = 0 // corrupt the invariant signature byte
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error for missing table signature")
	}
}

func TestDecodeRejectsShortEntryArea(t *testing.T) {
	buf := buildTable(3, 0, [][2]uint32{{1, 2}}) // claims 3 records, only 1 present
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error for truncated entry area")
	}
}

func TestResolveFixedAndVariable(t *testing.T) {
	tbl := &Table{Properties: []Property{
		{Tag: 0x00010003, Value: []byte{1, 2, 3, 4}},
		{Tag: 0x0002001F, Value: []byte{0x99, 0, 0, 0}},
	}}

	v, err := tbl.Resolve(tbl.Properties[0], nil)
	if err != nil || string(v) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("fixed resolve = %v, %v", v, err)
	}

	called := false
	resolver := func(subID pffprim.Identifier) ([]byte, error) {
		called = true
		if subID != pffprim.Identifier(0x99) {
			t.Fatalf("unexpected sub-identifier %s", subID)
		}
		return []byte("resolved"), nil
	}
	v, err = tbl.Resolve(tbl.Properties[1], resolver)
	if err != nil || string(v) != "resolved" || !called {
		t.Fatalf("variable resolve = %v, %v, called=%v", v, err, called)
	}

	if _, err := tbl.Resolve(tbl.Properties[1], nil); err == nil {
		t.Fatal("expected error resolving a variable-size property with no resolver")
	}
}
