package shared

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a prefixed 128-bit random identifier, e.g. "user_3f2a...".
func NewID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}
