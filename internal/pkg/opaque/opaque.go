package opaque

import (
	"crypto/rand"
	"encoding/hex"
)

// DefaultByteLength gives 256 bits of entropy, 64 hex characters on the wire.
const DefaultByteLength = 32

// NewToken returns a cryptographically random lowercase-hex token of
// 2*byteLength characters. Collisions are treated as infeasible and are not
// checked for.
func NewToken(byteLength int) string {
	if byteLength <= 0 {
		byteLength = DefaultByteLength
	}
	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; refuse to degrade
		// to a predictable token if it somehow does.
		panic("opaque: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
