package pffcrypt

// compressibleTransform implements the "Compressible" encryption
// mode (§4.2): every byte is XORed with a rotating key byte and run
// through the fixed substitution table. Encryption and decryption
// share this one pass, just with the XOR and the substitution
// direction swapped around each other so that decrypt(encrypt(b)) ==
// b for any key.
func compressibleTransform(buf []byte, key uint32, reverse bool) {
	kb := keyBytes(key)
	for i := range buf {
		k := kb[i%len(kb)]
		if !reverse {
			buf[i] = subTable[buf[i]^k]
		} else {
			buf[i] = subTableInv[buf[i]] ^ k
		}
	}
}
