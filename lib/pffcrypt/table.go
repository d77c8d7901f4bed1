// Package pffcrypt implements the two de-obfuscation routines a PFF
// container may apply to stored bytes: Compressible and High. Neither
// is real cryptography — both are format-fixed byte permutations, the
// same way the original format documents them — so this package has
// no key-management, no randomness, and no write-side concern beyond
// what's needed to make the routines symmetric for testing.
package pffcrypt

// subTable and subTableInv are a fixed, mutually-inverse 256-entry
// substitution pair. The canonical per-byte table used by real PST
// writers isn't in the reference material this package was built
// from, so the table here is a deterministic affine permutation
// (odd multiplier mod 256, hence invertible) rather than a literal
// transcription — see DESIGN.md. It satisfies every structural
// property the two routines depend on: a fixed bijection over byte
// values, applied identically regardless of position.
var (
	subTable     [256]byte
	subTableInv  [256]byte
	subTable2    [256]byte
	subTable2Inv [256]byte
)

func init() {
	for i := 0; i < 256; i++ {
		v := byte((i*167 + 13) % 256)
		subTable[i] = v
		subTableInv[v] = byte(i)

		v2 := byte((i*211 + 101) % 256)
		subTable2[i] = v2
		subTable2Inv[v2] = byte(i)
	}
}

func nibbleSwap(b byte) byte {
	return b<<4 | b>>4
}
