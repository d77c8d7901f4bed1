// Package codepages maps the 15 Windows ANSI codepages a container's
// access codepage may be set to (spec.md §6) onto the
// golang.org/x/text encodings that can actually decode a narrow
// string property's bytes. It exists purely to let propset/CLI
// callers turn a PT_STRING8 property's raw bytes into UTF-8; it never
// touches the core's byte-exact streams. Neither package imports the
// other: callers pass in the codepage number (for example the value
// of pff's Container.GetCodepage).
package codepages

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

var byCodepage = map[int]encoding.Encoding{
	874:   charmap.Windows874,
	932:   japanese.ShiftJIS,
	936:   simplifiedchinese.GBK,
	949:   korean.EUCKR,
	950:   traditionalchinese.Big5,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	20127: encoding.Nop, // ASCII: every valid code point maps to itself
}

// Decoder returns the encoding.Encoding for cp, or an error if cp is
// not one of the 15 codepages Container.SetCodepage recognizes.
func Decoder(cp int) (encoding.Encoding, error) {
	enc, ok := byCodepage[cp]
	if !ok {
		return nil, fmt.Errorf("codepages: unrecognized codepage %d", cp)
	}
	return enc, nil
}

// Decode turns raw PT_STRING8 bytes into UTF-8 using cp's encoding.
func Decode(cp int, raw []byte) (string, error) {
	enc, err := Decoder(cp)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("codepages: decode cp%d: %w", cp, err)
	}
	return string(out), nil
}
