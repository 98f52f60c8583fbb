// Package crypt implements the session-key derivation and the AEAD envelope
// used for encrypted API responses.
//
// The key schedule is salt-and-secret bound:
//
//	key = SHA-256(salt || hex(SHA-256(secret)))
//
// Both the login path and the per-request path funnel through DeriveKey, so
// the key handed to the client at login stays usable exactly as long as the
// stored secret is unchanged. Nothing here is persisted: the salt travels in
// the access token and the key is recomputed on demand.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

// KeySize is the width DeriveKey produces and Encrypt requires (AES-256).
const KeySize = 32

// NonceSize is the GCM nonce width used on the wire.
const NonceSize = 16

// tagSize is GCM's authentication tag width; the wire layout is
// nonce || tag || ciphertext, base64-encoded.
const tagSize = 16

// ErrKeySize is returned by Encrypt when the key has the wrong width.
// Callers must treat it as an internal error, never pad or truncate.
var ErrKeySize = errors.New("crypt: key must be 32 bytes")

// HashSecret returns the hex SHA-256 digest of the stored credential secret.
func HashSecret(secret []byte) string {
	sum := sha256.Sum256(secret)
	return hex.EncodeToString(sum[:])
}

// NewSalt mints a fresh session salt from 256 random bits. Only the salt
// itself ever leaves this function; the random preimage is discarded.
func NewSalt() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// DeriveKey recomputes the session key from a hashed secret and a salt. It is
// pure: identical inputs yield identical keys across calls and processes.
func DeriveKey(secretHash, salt string) []byte {
	sum := sha256.Sum256([]byte(salt + secretHash))
	return sum[:]
}

// LoginKey generates a fresh salt and the matching session key for a login.
// The salt goes into the access token; the key goes back to the client once.
func LoginKey(secret []byte) (key []byte, salt string, err error) {
	salt, err = NewSalt()
	if err != nil {
		return nil, "", err
	}
	return DeriveKey(HashSecret(secret), salt), salt, nil
}

// Encrypt seals plaintext under key with AES-256-GCM and a fresh random
// nonce, returning base64(nonce || tag || ciphertext). Nonces are never
// reused for a given key.
func Encrypt(key, plaintext []byte) (string, error) {
	if len(key) != KeySize {
		return "", ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	// Seal appends the tag to the ciphertext; the wire format carries it
	// between nonce and ciphertext instead.
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, NonceSize+tagSize+len(ciphertext))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}
