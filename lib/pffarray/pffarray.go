// Package pffarray resolves a data array: a two-level (occasionally
// deeper, bounded) on-disk vector of data-block references used when
// a descriptor's payload exceeds one block (§4.8). It produces a flat
// list of payload-block locations, retained so the decryption
// heuristic (§4.9) can make a per-entry decision later, lazily, the
// first time each entry is actually read.
package pffarray

import (
	"encoding/binary"

	"github.com/libpff-rec/pff-rec/lib/pffblock"
	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffindex"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

const arraySignature = 0x01

// Entry is one resolved payload-block reference. ForceDecrypt is
// mutable: the decryption heuristic (owned by the caller, typically
// pffstream) sets it the first time this entry is read and the
// decision is then frozen for the lifetime of the array.
type Entry struct {
	DataIdentifier   pffprim.Identifier
	FileOffset       int64
	DataSize         int32
	UncompressedSize int32
	ForceDecrypt     bool
	decided          bool
}

// Decided reports whether the decryption decision for this entry has
// already been made and cached.
func (e *Entry) Decided() bool { return e.decided }

// Decide freezes the decryption decision for this entry.
func (e *Entry) Decide(force bool) {
	e.ForceDecrypt = force
	e.decided = true
}

// Array is the flattened entry list produced by resolving a data
// array's (possibly nested) tree of array-descriptor blocks.
type Array struct {
	Entries   []*Entry
	TotalSize int64
}

// Resolve reads the array descriptor block for rootDataID (the
// descriptor's data_identifier, already known by the caller to start
// with the 0x01 array-descriptor signature byte) and recursively
// flattens it.
func Resolve(f pffdiskio.File, variant pffprim.Variant, offsetsIdx *pffindex.OffsetsIndex, rootDataID pffprim.Identifier, strict bool) (*Array, error) {
	entries, total, err := resolveLevel(f, variant, offsetsIdx, rootDataID, strict, 0)
	if err != nil {
		return nil, err
	}
	return &Array{Entries: entries, TotalSize: total}, nil
}

func resolveLevel(f pffdiskio.File, variant pffprim.Variant, offsetsIdx *pffindex.OffsetsIndex, dataID pffprim.Identifier, strict bool, depth int) ([]*Entry, int64, error) {
	if depth >= pffprim.MaxRecursionDepth {
		return nil, 0, pfferrors.NewCorruptedError("resolve_array", "recursion depth exceeded at data identifier %s", dataID)
	}

	leaf, err := offsetsIdx.GetByIdentifier(dataID)
	if err != nil {
		return nil, 0, err
	}
	blk, err := pffblock.Read(f, variant, leaf.FileOffset, leaf.DataSize, leaf.Identifier, strict)
	if err != nil {
		return nil, 0, err
	}

	payload := blk.Payload
	if len(payload) < 8 {
		return nil, 0, pfferrors.NewCorruptedError("resolve_array", "array descriptor block too small: %d bytes", len(payload))
	}
	signature := payload[0]
	level := payload[1]
	numberOfEntries := binary.LittleEndian.Uint16(payload[2:4])
	totalDataSize := binary.LittleEndian.Uint32(payload[4:8])

	if signature != arraySignature {
		return nil, 0, pfferrors.NewCorruptedError("resolve_array", "bad array signature 0x%02x", signature)
	}
	if level < 1 {
		return nil, 0, pfferrors.NewCorruptedError("resolve_array", "array level %d must be >= 1", level)
	}

	pw := variant.PointerWidth()
	entryArea := payload[8:]
	needed := int(numberOfEntries) * pw
	if len(entryArea) < needed {
		return nil, 0, pfferrors.NewCorruptedError("resolve_array", "entry area too small: %d < %d", len(entryArea), needed)
	}

	var entries []*Entry
	var sum int64

	for i := 0; i < int(numberOfEntries); i++ {
		raw := entryArea[i*pw : (i+1)*pw]
		childID := readPointer(raw, pw)

		if level == 1 {
			childLeaf, err := offsetsIdx.GetByIdentifier(childID)
			if err != nil {
				return nil, 0, err
			}
			entries = append(entries, &Entry{
				DataIdentifier:   childID,
				FileOffset:       childLeaf.FileOffset,
				DataSize:         childLeaf.DataSize,
				UncompressedSize: childLeaf.DataSize,
			})
			sum += int64(childLeaf.DataSize)
		} else {
			sub, subTotal, err := resolveLevel(f, variant, offsetsIdx, childID, strict, depth+1)
			if err != nil {
				return nil, 0, err
			}
			entries = append(entries, sub...)
			sum += subTotal
		}
	}

	if sum != int64(totalDataSize) {
		return nil, 0, pfferrors.NewCorruptedError("resolve_array",
			"sum of leaf sizes %d does not match declared total %d", sum, totalDataSize)
	}

	return entries, sum, nil
}

func readPointer(raw []byte, width int) pffprim.Identifier {
	if width == 4 {
		return pffprim.Identifier(binary.LittleEndian.Uint32(raw))
	}
	return pffprim.Identifier(binary.LittleEndian.Uint64(raw))
}
