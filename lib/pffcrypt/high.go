package pffcrypt

// highTransform implements the "High" encryption mode (§4.2): three
// passes, a substitution, a nibble-swap, and a second substitution,
// each mixed with a different rotation of the key. Decryption runs
// the same three steps in reverse order with each step inverted;
// nibble-swap is its own inverse.
func highTransform(buf []byte, key uint32, reverse bool) {
	kb := keyBytes(key)
	for i := range buf {
		k0 := kb[i%len(kb)]
		k1 := kb[(i+1)%len(kb)]
		k2 := kb[(i+2)%len(kb)]

		if !reverse {
			t1 := subTable[buf[i]^k0]
			t2 := nibbleSwap(t1) ^ k1
			buf[i] = subTable2[t2^k2]
		} else {
			t2 := subTable2Inv[buf[i]] ^ k2
			t1 := nibbleSwap(t2 ^ k1)
			buf[i] = subTableInv[t1] ^ k0
		}
	}
}
