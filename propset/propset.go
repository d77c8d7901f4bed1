// Package propset decodes a MAPI property table out of a descriptor's
// byte stream (§4.14): the invariant signature, the minimal common
// header (record count, values-array back-pointer), and the
// fixed-size property entries that follow it. It consumes the core
// (lib/pff's resolved streams) but never feeds back into it —
// variable-size property resolution is left to a caller-supplied
// callback, since that needs the owning descriptor's
// local-descriptors tree, which only the façade can reach.
//
// Full MAPI semantic interpretation, RTF/LZFU decompression, and
// name-to-id mapping beyond exposing the raw stream are out of scope.
package propset

import (
	"encoding/binary"

	"github.com/libpff-rec/pff-rec/lib/binstruct"
	"github.com/libpff-rec/pff-rec/lib/pfferrors"
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// Header is the fixed head every property-table block starts with:
// the invariant table signature (§4.9 "table signature"), a
// caller-informational table type byte, how many fixed-size entries
// follow, and the local-descriptors identifier holding any
// variable-size property's bytes. Beyond the two bytes
// pffprim.LooksLikeTableSignature pins down (offsets 0x2/0x3), the
// remaining fields are this package's own self-consistent layout —
// see DESIGN.md.
type Header struct {
	Reserved              uint16 `bin:"off=0x0,siz=0x2"`
	Signature             uint8  `bin:"off=0x2,siz=0x1"`
	TableType             uint8  `bin:"off=0x3,siz=0x1"`
	RecordCount           uint16 `bin:"off=0x4,siz=0x2"`
	ValuesArrayIdentifier uint32 `bin:"off=0x6,siz=0x4"`
	binstruct.End         `bin:"off=0xa"`
}

const headerSize = 0xa

// fixedEntry is one on-disk property entry: a MAPI property tag
// (property-ID high word, property-type low word) followed by either
// an inline fixed-size value or a local-descriptors sub-identifier
// for a variable-size one.
type fixedEntry struct {
	Tag           uint32 `bin:"off=0x0,siz=0x4"`
	Value         uint32 `bin:"off=0x4,siz=0x4"`
	binstruct.End `bin:"off=0x8"`
}

const entrySize = 0x8

// MAPI property types whose value slot holds a local-descriptors
// sub-identifier rather than an inline value (§4.7, §4.14).
const (
	TypeObject  = 0x000D
	TypeString8 = 0x001E
	TypeUnicode = 0x001F
	TypeBinary  = 0x0102
)

// Property is one decoded property entry.
type Property struct {
	Tag   uint32
	Value []byte // 4 inline bytes, or a little-endian sub-identifier when IsVariableSize
}

// IsVariableSize reports whether Value must be resolved through the
// owning descriptor's local-descriptors tree rather than used
// directly (§4.7).
func (p Property) IsVariableSize() bool {
	switch p.Tag & 0xFFFF {
	case TypeObject, TypeString8, TypeUnicode, TypeBinary:
		return true
	default:
		return false
	}
}

// SubIdentifier interprets Value as a local-descriptors
// sub-identifier. Only meaningful when IsVariableSize is true.
func (p Property) SubIdentifier() pffprim.Identifier {
	return pffprim.Identifier(binary.LittleEndian.Uint32(p.Value))
}

// Table is a decoded property table.
type Table struct {
	TableType             byte
	ValuesArrayIdentifier pffprim.Identifier
	Properties            []Property
}

// Decode parses raw (an already-resolved descriptor stream, §4.10)
// into its table type and fixed-size properties.
func Decode(raw []byte) (*Table, error) {
	if !pffprim.LooksLikeTableSignature(raw) {
		return nil, pfferrors.NewCorruptedError("propset_decode", "missing table signature")
	}

	var h Header
	if _, err := binstruct.Unmarshal(raw, &h); err != nil {
		return nil, pfferrors.NewCorruptedError("propset_decode", "header: %v", err)
	}

	entries := raw[headerSize:]
	want := int(h.RecordCount) * entrySize
	if len(entries) < want {
		return nil, pfferrors.NewCorruptedError("propset_decode",
			"record count %d needs %d bytes, only %d available", h.RecordCount, want, len(entries))
	}

	props := make([]Property, h.RecordCount)
	for i := range props {
		var e fixedEntry
		if _, err := binstruct.Unmarshal(entries[i*entrySize:], &e); err != nil {
			return nil, pfferrors.NewCorruptedError("propset_decode", "entry %d: %v", i, err)
		}
		var val [4]byte
		binary.LittleEndian.PutUint32(val[:], e.Value)
		props[i] = Property{Tag: e.Tag, Value: val[:]}
	}

	return &Table{
		TableType:             h.TableType,
		ValuesArrayIdentifier: pffprim.Identifier(h.ValuesArrayIdentifier),
		Properties:            props,
	}, nil
}

// VariableResolver resolves a variable-size property's sub-identifier
// into its bytes, typically backed by Container.LocalDescriptorStream
// over the owning descriptor.
type VariableResolver func(subID pffprim.Identifier) ([]byte, error)

// Resolve returns p's value bytes directly for a fixed-size property,
// or via resolve for a variable-size one.
func (t *Table) Resolve(p Property, resolve VariableResolver) ([]byte, error) {
	if !p.IsVariableSize() {
		return p.Value, nil
	}
	if resolve == nil {
		return nil, pfferrors.NewArgumentError("propset_resolve", errNoResolver)
	}
	return resolve(p.SubIdentifier())
}
