package common

import (
	"crypto/rand"
	"fmt"
)

// GenerateRandByteArray returns n cryptographically secure random bytes.
func GenerateRandByteArray(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size must be positive", ErrorValidation)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return b, nil
}

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Useful for removing passwords and keys from memory after use.
// A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
