package auth

import "errors"

// Authentication failure kinds. Specific kinds are preserved through
// every layer; only the caller-visible rendering is unified for the
// credential failures (see Verdict.Message).
var (
	ErrWrongCredentials     = errors.New("wrong credentials")
	ErrUserNotFound         = errors.New("user not found")
	ErrMfaNotEnrolled       = errors.New("mfa required but no face enrolled")
	ErrFaceMismatch         = errors.New("face verification failed")
	ErrFaceUnavailable      = errors.New("face verification unavailable")
	ErrFaceCaptureCancelled = errors.New("face capture cancelled")
)

// failedLoginMessage is shown for both unknown-user and wrong-password
// failures. Identical wording prevents username enumeration through
// message content; the audit log still records the distinct kind.
const failedLoginMessage = "invalid username or password"
