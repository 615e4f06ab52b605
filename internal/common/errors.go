// Package common defines shared constants and sentinel errors used across
// the FaceGuard layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrorDuplicateUsername = errors.New("username already exists")

	// Input validation errors (recovered locally, surfaced as rejections).
	ErrorValidation = errors.New("validation error")

	// Fatal storage-layer errors.
	ErrorIntegrity       = errors.New("data integrity check failed")
	ErrorMalformedRecord = errors.New("malformed stored record")
	ErrorVersionTooNew   = errors.New("stored record version is newer than supported")
	ErrorStorage         = errors.New("storage error")

	// Generic internal failure.
	ErrorInternal = errors.New("internal error")
)
