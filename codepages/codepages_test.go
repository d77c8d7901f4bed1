package codepages

import "testing"

func TestDecoderRecognizesAllFifteenCodepages(t *testing.T) {
	for _, cp := range []int{874, 932, 936, 949, 950, 1250, 1251, 1252, 1253, 1254, 1255, 1256, 1257, 1258, 20127} {
		if _, err := Decoder(cp); err != nil {
			t.Errorf("Decoder(%d): %v", cp, err)
		}
	}
}

func TestDecoderRejectsUnrecognized(t *testing.T) {
	if _, err := Decoder(65001); err == nil {
		t.Fatal("expected error for unrecognized codepage")
	}
}

func TestDecodeWindows1252(t *testing.T) {
	// 0xE9 is 'é' in cp1252.
	got, err := Decode(1252, []byte{'r', 0xE9, 's', 'u', 'm', 0xE9})
	if err != nil {
		t.Fatal(err)
	}
	if got != "résumé" {
		t.Fatalf("Decode = %q, want %q", got, "résumé")
	}
}

func TestDecodeASCIIIsIdentity(t *testing.T) {
	got, err := Decode(20127, []byte("plain text"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "plain text" {
		t.Fatalf("Decode = %q, want %q", got, "plain text")
	}
}
