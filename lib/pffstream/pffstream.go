// Package pffstream composes a descriptor's payload into a seekable
// byte stream (§4.10): either a single block or, when the first byte
// of that block is the array-descriptor signature, a resolved data
// array (§4.8). It owns the decryption heuristic (§4.9), since that
// decision depends on descriptor context (node type, the
// container-wide encryption mode, a per-container sticky flag) that
// neither the block layer nor the array layer has on its own.
package pffstream

import (
	"github.com/libpff-rec/pff-rec/lib/pffarray"
	"github.com/libpff-rec/pff-rec/lib/pffblock"
	"github.com/libpff-rec/pff-rec/lib/pffcrypt"
	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffindex"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

const arraySignature = 0x01

// Stream is one descriptor's resolved payload.
type Stream struct {
	f          pffdiskio.File
	variant    pffprim.Variant
	offsetsIdx *pffindex.OffsetsIndex
	mode       pffprim.EncryptionMode
	nodeType   pffprim.NodeType
	sticky     *bool
	strict     bool

	entries []*pffarray.Entry
	cache   map[int][]byte
}

// New resolves dataID (typically a descriptor's data_identifier or
// local_descriptors_identifier) into a Stream. A zero dataID produces
// an empty, zero-length stream (a descriptor with no payload). sticky
// is the container-wide forced-decryption flag (§4.9 step 4); streams
// over the same container must share one.
func New(f pffdiskio.File, variant pffprim.Variant, offsetsIdx *pffindex.OffsetsIndex, dataID pffprim.Identifier, mode pffprim.EncryptionMode, nodeType pffprim.NodeType, sticky *bool, strict bool) (*Stream, error) {
	s := &Stream{
		f:          f,
		variant:    variant,
		offsetsIdx: offsetsIdx,
		mode:       mode,
		nodeType:   nodeType,
		sticky:     sticky,
		strict:     strict,
		cache:      make(map[int][]byte),
	}

	if dataID == 0 {
		return s, nil
	}

	leaf, err := offsetsIdx.GetByIdentifier(dataID)
	if err != nil {
		return nil, err
	}
	blk, err := pffblock.Read(f, variant, leaf.FileOffset, leaf.DataSize, leaf.Identifier, strict)
	if err != nil {
		return nil, err
	}

	if len(blk.Payload) > 0 && blk.Payload[0] == arraySignature {
		arr, err := pffarray.Resolve(f, variant, offsetsIdx, dataID, strict)
		if err != nil {
			return nil, err
		}
		s.entries = arr.Entries
	} else {
		s.entries = []*pffarray.Entry{{
			DataIdentifier:   dataID,
			FileOffset:       leaf.FileOffset,
			DataSize:         leaf.DataSize,
			UncompressedSize: leaf.DataSize,
		}}
	}

	return s, nil
}

// Size is the total uncompressed payload length.
func (s *Stream) Size() int64 {
	var total int64
	for _, e := range s.entries {
		total += int64(e.UncompressedSize)
	}
	return total
}

// Read returns length bytes starting at offset. Reads are idempotent
// and stateless: the stream holds no cursor, only a per-entry
// plaintext cache keyed by the decryption decision frozen on first
// read (§4.12 "Data stream read").
func (s *Stream) Read(offset int64, length int) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, pfferrors.NewArgumentError("stream_read", errNegativeArg)
	}
	out := make([]byte, 0, length)
	var cum int64
	remainingStart, remainingEnd := offset, offset+int64(length)

	for i, e := range s.entries {
		entryStart := cum
		entryEnd := cum + int64(e.UncompressedSize)
		cum = entryEnd

		if remainingEnd <= entryStart || remainingStart >= entryEnd {
			continue
		}

		plain, err := s.entryPlaintext(i)
		if err != nil {
			return nil, err
		}

		lo := remainingStart - entryStart
		if lo < 0 {
			lo = 0
		}
		hi := remainingEnd - entryStart
		if hi > int64(len(plain)) {
			hi = int64(len(plain))
		}
		if lo < hi {
			out = append(out, plain[lo:hi]...)
		}
	}

	if int64(len(out)) != remainingEnd-remainingStart {
		return out, pfferrors.NewIoError("stream_read", errShortStream)
	}
	return out, nil
}

func (s *Stream) entryPlaintext(i int) ([]byte, error) {
	if cached, ok := s.cache[i]; ok {
		return cached, nil
	}

	e := s.entries[i]
	blk, err := pffblock.Read(s.f, s.variant, e.FileOffset, e.DataSize, e.DataIdentifier, s.strict)
	if err != nil {
		return nil, err
	}
	payload := append([]byte(nil), blk.Payload...)

	if !e.DataIdentifier.IsInternal() {
		force := false
		switch {
		case s.mode != pffprim.EncryptionNone:
			if _, err := pffcrypt.Decrypt(s.mode, uint32(e.DataIdentifier), payload); err != nil {
				return nil, err
			}
		case s.sticky != nil && *s.sticky:
			force = true
			if _, err := pffcrypt.Decrypt(pffprim.EncryptionCompressible, uint32(e.DataIdentifier), payload); err != nil {
				return nil, err
			}
		case s.nodeType.IsTableBearing() && !pffprim.LooksLikeTableSignature(payload):
			candidate := append([]byte(nil), payload...)
			if _, err := pffcrypt.Decrypt(pffprim.EncryptionCompressible, uint32(e.DataIdentifier), candidate); err != nil {
				return nil, err
			}
			if pffprim.LooksLikeTableSignature(candidate) {
				force = true
				payload = candidate
				if s.sticky != nil {
					*s.sticky = true
				}
			}
		}
		e.Decide(force)
	}

	s.cache[i] = payload
	return payload, nil
}
