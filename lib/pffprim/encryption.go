// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package pffprim

import "fmt"

// EncryptionMode is the container-wide encryption mode declared in
// the file header (§3 "Encryption mode"). Immutable per container,
// except for the sticky-force-decryption override the decryption
// heuristic (§4.9) may apply on top of it.
type EncryptionMode uint8

const (
	EncryptionNone EncryptionMode = iota
	EncryptionCompressible
	EncryptionHigh
)

func (m EncryptionMode) String() string {
	switch m {
	case EncryptionNone:
		return "none"
	case EncryptionCompressible:
		return "compressible"
	case EncryptionHigh:
		return "high"
	default:
		return "unknown"
	}
}

// EncryptionModeFromByte decodes the header's one-byte encryption
// type field.
func EncryptionModeFromByte(b byte) (EncryptionMode, error) {
	switch b {
	case 0x00:
		return EncryptionNone, nil
	case 0x01:
		return EncryptionCompressible, nil
	case 0x02:
		return EncryptionHigh, nil
	default:
		return 0, &UnsupportedError{What: "encryption type", Value: int(b)}
	}
}

// EncryptionOverride is the caller-facing configuration knob (§6
// "Encryption override"): Auto honors the header; the Force* values
// bypass it (used for files with misdeclared headers, or for testing
// the decryption heuristic directly).
type EncryptionOverride uint8

const (
	EncryptionOverrideAuto EncryptionOverride = iota
	EncryptionOverrideForceNone
	EncryptionOverrideForceCompressible
	EncryptionOverrideForceHigh
)

// Resolve applies the override on top of the header-declared mode.
func (o EncryptionOverride) Resolve(declared EncryptionMode) EncryptionMode {
	switch o {
	case EncryptionOverrideForceNone:
		return EncryptionNone
	case EncryptionOverrideForceCompressible:
		return EncryptionCompressible
	case EncryptionOverrideForceHigh:
		return EncryptionHigh
	default:
		return declared
	}
}

// UnsupportedError is returned for a recognized-but-unimplementable
// on-disk value: an unknown file variant, an unknown encryption type,
// or an unknown index signature (§7 "Unsupported").
type UnsupportedError struct {
	What  string
	Value int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("pff: unsupported %s: %d (0x%x)", e.What, e.Value, e.Value)
}
