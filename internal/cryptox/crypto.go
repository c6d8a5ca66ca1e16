// Package cryptox derives the user's master key and encrypts client data
// with it.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters. Changing them changes every derived key, which locks
// users out of their cached offline login and their backups.
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
	keyLen     = 32
)

// Blob layout: one format byte, the GCM nonce, then ciphertext with its tag.
const (
	formatV1  byte = 1
	nonceSize      = 12
	headerLen      = 1 + nonceSize
)

var (
	ErrShortBlob     = errors.New("encrypted blob too short")
	ErrUnknownFormat = errors.New("unknown blob format")
)

// DeriveMasterKey stretches password with argon2id into a 32-byte key.
func DeriveMasterKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, kdfTime, kdfMemory, kdfThreads, keyLen)
}

// MakeVerifier returns the value the server stores to check a master key
// without learning it.
func MakeVerifier(masterKey []byte) []byte {
	sum := sha256.Sum256(masterKey)
	return sum[:]
}

// Seal marshals v to JSON and encrypts it with AES-GCM under key. Every call
// draws a fresh nonce.
func Seal(v any, key []byte) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, headerLen, headerLen+len(plaintext)+aead.Overhead())
	blob[0] = formatV1
	if _, err := rand.Read(blob[1:headerLen]); err != nil {
		return nil, err
	}
	return aead.Seal(blob, blob[1:headerLen], plaintext, blob[:1]), nil
}

// Open decrypts a blob produced by Seal and unmarshals it into v.
func Open(blob, key []byte, v any) error {
	if len(blob) < headerLen {
		return ErrShortBlob
	}
	if blob[0] != formatV1 {
		return fmt.Errorf("%w: %d", ErrUnknownFormat, blob[0])
	}
	aead, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aead.Open(nil, blob[1:headerLen], blob[headerLen:], blob[:1])
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
