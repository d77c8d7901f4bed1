// Package pffblock reads a single on-disk data block: payload bytes
// followed by a trailer carrying a declared size, a CRC, and a
// back-pointer to the offsets-index identifier that addressed it
// (§4.3). It does not decrypt — the data-array layer owns that
// decision, since it depends on descriptor context the block layer
// doesn't have.
package pffblock

import (
	"encoding/binary"
	"fmt"

	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
	"github.com/libpff-rec/pff-rec/lib/pffsum"
)

// Block is a decoded on-disk data block: the payload (trailer
// stripped), plus whether trailer validation was forced to tolerate a
// mismatch.
type Block struct {
	Payload   []byte
	Corrupted bool
}

// trailer is the fixed tail every data block carries, independent of
// its variant-specific width.
type trailer struct {
	DeclaredSize uint16
	Signature    byte
	CRC          uint32
	BackPointer  pffprim.Identifier
}

const trailerSignature = 0xba

func parseTrailer(buf []byte, variant pffprim.Variant) (trailer, error) {
	var t trailer
	t.DeclaredSize = binary.LittleEndian.Uint16(buf[0:2])
	t.Signature = buf[2]
	// buf[3] is padding.
	t.CRC = binary.LittleEndian.Uint32(buf[4:8])
	switch variant.PointerWidth() {
	case 4:
		t.BackPointer = pffprim.Identifier(binary.LittleEndian.Uint32(buf[8:12]))
	case 8:
		t.BackPointer = pffprim.Identifier(binary.LittleEndian.Uint64(buf[8:16]))
	default:
		return trailer{}, pfferrors.NewUnsupportedError("parse_trailer",
			fmt.Errorf("pointer width %d", variant.PointerWidth()))
	}
	return t, nil
}

// Read reads one data block of size bytes at off, validates its
// trailer against backPointer (the offsets-index identifier that
// addressed it), and returns the plaintext-or-still-encrypted
// payload. In strict mode a CRC mismatch fails with CorruptedError;
// in tolerant mode the mismatch is recorded on Block.Corrupted and the
// payload is still returned, so a caller doing best-effort recovery
// can keep going.
func Read(f pffdiskio.File, variant pffprim.Variant, off int64, size int32, backPointer pffprim.Identifier, strict bool) (*Block, error) {
	if size < 0 {
		return nil, pfferrors.NewArgumentError("read_block", fmt.Errorf("negative size %d", size))
	}
	total := int64(size) + int64(variant.TrailerSize())
	buf := make([]byte, total)
	if err := pffdiskio.ReadAt(f, buf, off); err != nil {
		return nil, pfferrors.NewIoError("read_block", err)
	}

	payload := buf[:size]
	trailerBuf := buf[size:]

	tr, err := parseTrailer(trailerBuf, variant)
	if err != nil {
		return nil, err
	}

	blk := &Block{Payload: payload}

	if int64(tr.DeclaredSize) != int64(size) {
		return nil, pfferrors.NewCorruptedError("read_block",
			"declared size %d does not match requested size %d", tr.DeclaredSize, size)
	}
	if tr.BackPointer != backPointer {
		return nil, pfferrors.NewCorruptedError("read_block",
			"back-pointer %s does not match expected %s", tr.BackPointer, backPointer)
	}

	if !pffsum.Verify(payload, tr.CRC) {
		if strict {
			return nil, pfferrors.NewCorruptedError("read_block",
				"crc mismatch: computed 0x%08x, want 0x%08x", pffsum.Sum(payload), tr.CRC)
		}
		blk.Corrupted = true
	}

	return blk, nil
}
