package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomKey returns 32 random bytes, suitable as an HMAC key.
func GenerateRandomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return key
}

// GenerateToken returns a random hex string of 2*n characters.
func GenerateToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
