// Package pffheader reads and validates the fixed file header at the
// start of a PFF container: the magic, the content-type and
// format-variant bytes, the encryption type, and the root offsets and
// back-pointers for the two top-level indexes and the allocation
// tables (§6 "Input files", §4.12 bootstrap). Beyond the two bytes
// the source spec pins down precisely (content type at 0x08, variant
// at 0x0A), the remaining field offsets are this module's own
// self-consistent layout — see DESIGN.md.
package pffheader

import (
	"encoding/binary"

	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

var magic = [4]byte{'!', 'B', 'D', 'N'}

// ContentType distinguishes a PST from an OST container. The core
// handles both identically; this is purely informational.
type ContentType byte

const (
	ContentTypePST ContentType = 0x53 // 'S'
	ContentTypeOST ContentType = 0x4D // 'M'
)

func (c ContentType) String() string {
	switch c {
	case ContentTypePST:
		return "pst"
	case ContentTypeOST:
		return "ost"
	default:
		return "unknown"
	}
}

// headerSize is the fixed size of the region this module parses.
const headerSize = 0x50

// Header is the decoded, validated file header.
type Header struct {
	ContentType ContentType
	Variant     pffprim.Variant
	Encryption  pffprim.EncryptionMode
	FileSize    int64

	DescriptorsRootOffset     int64
	DescriptorsRootBackPtr    pffprim.Identifier
	OffsetsRootOffset         int64
	OffsetsRootBackPtr        pffprim.Identifier
	AllocationTableRootOffset int64
}

// Read parses and validates the header at the start of f.
func Read(f pffdiskio.File) (*Header, error) {
	buf := make([]byte, headerSize)
	if err := pffdiskio.ReadAt(f, buf, 0); err != nil {
		return nil, pfferrors.NewIoError("read_header", err)
	}

	if [4]byte(buf[0:4]) != magic {
		return nil, pfferrors.NewCorruptedError("read_header", "bad magic %q, want %q", buf[0:4], magic[:])
	}

	variant, err := pffprim.VariantFromContentTypeByte(buf[0x0A])
	if err != nil {
		return nil, pfferrors.NewUnsupportedError("read_header", err)
	}

	encMode, err := pffprim.EncryptionModeFromByte(buf[0x0B])
	if err != nil {
		return nil, pfferrors.NewUnsupportedError("read_header", err)
	}

	h := &Header{
		ContentType:               ContentType(buf[0x08]),
		Variant:                   variant,
		Encryption:                encMode,
		FileSize:                  int64(binary.LittleEndian.Uint64(buf[0x0C:0x14])),
		DescriptorsRootOffset:     int64(binary.LittleEndian.Uint64(buf[0x14:0x1C])),
		DescriptorsRootBackPtr:    pffprim.Identifier(binary.LittleEndian.Uint64(buf[0x1C:0x24])),
		OffsetsRootOffset:         int64(binary.LittleEndian.Uint64(buf[0x24:0x2C])),
		OffsetsRootBackPtr:        pffprim.Identifier(binary.LittleEndian.Uint64(buf[0x2C:0x34])),
		AllocationTableRootOffset: int64(binary.LittleEndian.Uint64(buf[0x34:0x3C])),
	}

	if h.FileSize < 0 {
		return nil, pfferrors.NewCorruptedError("read_header", "negative file size %d", h.FileSize)
	}
	if h.FileSize > 0 && h.FileSize != f.Size() {
		return nil, pfferrors.NewCorruptedError("read_header", "declared file size %d does not match actual size %d", h.FileSize, f.Size())
	}

	return h, nil
}
