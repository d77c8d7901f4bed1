package pffcrypt

import (
	"github.com/libpff-rec/pff-rec/lib/pffprim"
)

// keyBytes splits a 32-bit key into four rotating bytes, least
// significant first, matching the little-endian identifier the key
// is derived from.
func keyBytes(key uint32) [4]byte {
	return [4]byte{
		byte(key),
		byte(key >> 8),
		byte(key >> 16),
		byte(key >> 24),
	}
}

// Transform applies or reverses the given mode's obfuscation over
// buf in place, keyed by key (the low 32 bits of the entry's data
// identifier, conventionally). It returns the number of bytes
// processed. pffprim.EncryptionModeNone leaves buf untouched.
//
// Both directions use the same entry point: reverse=false encrypts,
// reverse=true decrypts. Compressible is its own near-inverse modulo
// table direction, and High un-does its three passes in reverse
// order, so a single Transform call handles both.
func Transform(mode pffprim.EncryptionMode, key uint32, buf []byte, reverse bool) (int, error) {
	switch mode {
	case pffprim.EncryptionNone:
		return len(buf), nil
	case pffprim.EncryptionCompressible:
		compressibleTransform(buf, key, reverse)
		return len(buf), nil
	case pffprim.EncryptionHigh:
		highTransform(buf, key, reverse)
		return len(buf), nil
	default:
		return 0, &pffprim.UnsupportedError{What: "encryption mode", Value: int(mode)}
	}
}

// Encrypt is Transform with reverse=false.
func Encrypt(mode pffprim.EncryptionMode, key uint32, buf []byte) (int, error) {
	return Transform(mode, key, buf, false)
}

// Decrypt is Transform with reverse=true.
func Decrypt(mode pffprim.EncryptionMode, key uint32, buf []byte) (int, error) {
	return Transform(mode, key, buf, true)
}
