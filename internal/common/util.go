package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString returns n random bytes hex-encoded (2n characters).
func MakeRandHexString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns n random bytes. It panics if the system
// random source fails, which crypto/rand documents as unrecoverable.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites secret material such as passwords and master keys
// once it is no longer needed.
func WipeByteArray(b []byte) {
	clear(b)
}
