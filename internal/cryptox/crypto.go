// Package cryptox implements the two cryptographic primitives the
// credential store is built on: PBKDF2 password stretching and AES-256-GCM
// authenticated encryption with an explicit nonce/ciphertext/tag split.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the AES-256 key size in bytes, also the PBKDF2 output size.
	KeySize = 32
	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag size in bytes.
	TagSize = 16

	// DefaultIterations is the default PBKDF2 round count. High enough
	// that a single derivation costs hundreds of milliseconds on
	// commodity hardware.
	DefaultIterations = 200000

	// HashAlgorithm and CipherAlgorithm identify what this package
	// actually implements. Stored config must carry the same strings.
	HashAlgorithm   = "PBKDF2-HMAC-SHA256"
	CipherAlgorithm = "AES-256-GCM"
)

var (
	// ErrIntegrity is returned by Open when the ciphertext or tag fails
	// authentication. No plaintext is ever returned alongside it.
	ErrIntegrity = errors.New("ciphertext integrity check failed")

	ErrInvalidArgument = errors.New("invalid argument")
)

// DeriveKey stretches a password into a 32-byte key using
// PBKDF2-HMAC-SHA256 over the given salt and iteration count.
// Deterministic: identical inputs always produce identical output.
func DeriveKey(password string, salt []byte, iterations int) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrInvalidArgument)
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("%w: non-positive iteration count %d", ErrInvalidArgument, iterations)
	}
	return pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New), nil
}

// GenerateSalt returns n cryptographically secure random bytes.
func GenerateSalt(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: non-positive salt length %d", ErrInvalidArgument, n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return b, nil
}

// Seal encrypts plaintext with AES-256-GCM under key. A fresh random
// 12-byte nonce is generated on every call; it is returned alongside the
// ciphertext and 16-byte tag and is not secret. The optional aad is
// authenticated but not encrypted.
func Seal(key, plaintext, aad []byte) (nonce, ciphertext, tag []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("generating nonce: %w", err)
	}

	// gcm appends the tag to the ciphertext; split it back out.
	sealed := aead.Seal(nil, nonce, plaintext, aad)
	ciphertext = sealed[:len(sealed)-TagSize]
	tag = sealed[len(sealed)-TagSize:]

	return nonce, ciphertext, tag, nil
}

// Open authenticates and decrypts a (nonce, ciphertext, tag) triple
// produced by Seal. Any alteration of the ciphertext, tag, or aad makes
// Open fail with ErrIntegrity; no partial plaintext is returned.
func Open(key, nonce, ciphertext, tag, aad []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrInvalidArgument, NonceSize)
	}
	if len(tag) != TagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes", ErrInvalidArgument, TagSize)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// HashEqual compares two derived hashes in constant time.
func HashEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrInvalidArgument, KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
