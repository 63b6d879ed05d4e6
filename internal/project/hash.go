package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is the cache-key hash used throughout the generation cache.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// HashBytes digests one byte slice.
func HashBytes(b []byte) Digest {
	return sha256.Sum256(b)
}

// HashParts digests a sequence of length-delimited parts, so that
// ("ab","c") and ("a","bc") key differently.
func HashParts(parts ...[]byte) Digest {
	h := sha256.New()
	var lenBuf [8]byte
	for _, p := range parts {
		n := len(p)
		for i := range lenBuf {
			lenBuf[i] = byte(n >> (8 * i))
		}
		h.Write(lenBuf[:])
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
