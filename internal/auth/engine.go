// Package auth implements the multi-factor authentication engine: a
// password factor checked against the credential store and an optional
// face factor delegated to the external comparison service. The login
// flow is an explicit linear state machine; every terminal state emits
// exactly one audit event.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/faceguard/internal/audit"
	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/cryptox"
	"github.com/dmitrijs2005/faceguard/internal/faceid"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// UserStore is the slice of the credential store the engine needs.
// *storage.Store satisfies it.
type UserStore interface {
	FindByUsername(name string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (int, error)
	Update(ctx context.Context, user *models.User) error
	GetConfig() models.SystemConfig
}

// ProbeCapturer obtains a fresh probe template from the capture device.
// Capture is human-in-the-loop and may block for a long time; a user
// abort must surface as context cancellation or an error, never as a
// fabricated probe.
type ProbeCapturer interface {
	CaptureProbe(ctx context.Context) ([]byte, error)
}

// FaceComparer is the remote comparison service boundary. Distance is in
// [0,1]; lower means more similar.
type FaceComparer interface {
	CompareDistance(ctx context.Context, stored, probe []byte) (float64, error)
	Detect(ctx context.Context, probe []byte) error
}

// Verdict is the tagged outcome of an authentication attempt.
type Verdict struct {
	OK       bool
	Factors  int
	Username string
	Err      error
}

// Message renders the caller-visible text. Unknown-user and
// wrong-password verdicts produce byte-identical output.
func (v Verdict) Message() string {
	switch {
	case v.OK:
		return fmt.Sprintf("user %q authenticated (%d factor(s))", v.Username, v.Factors)
	case errors.Is(v.Err, ErrUserNotFound), errors.Is(v.Err, ErrWrongCredentials):
		return failedLoginMessage
	case errors.Is(v.Err, ErrMfaNotEnrolled):
		return "two-factor authentication is required but no face is enrolled"
	case errors.Is(v.Err, ErrFaceMismatch):
		return "face verification failed"
	case errors.Is(v.Err, ErrFaceUnavailable):
		return "face verification unavailable"
	case errors.Is(v.Err, ErrFaceCaptureCancelled):
		return "face capture cancelled"
	default:
		return v.Err.Error()
	}
}

// loginState enumerates the steps of the login state machine.
type loginState int

const (
	stateStart loginState = iota
	statePasswordChecked
	stateFaceRequired
	stateDone
)

// Engine composes the password and face factors into a final verdict.
type Engine struct {
	store      UserStore
	audit      *audit.Log
	capture    ProbeCapturer
	compare    FaceComparer
	saltLength int
	log        logging.Logger
}

// NewEngine constructs an Engine. capture and compare may be nil when no
// face hardware/service is wired; face checks then fail as unavailable.
func NewEngine(store UserStore, auditLog *audit.Log, capture ProbeCapturer, compare FaceComparer,
	saltLength int, log logging.Logger) *Engine {
	return &Engine{
		store:      store,
		audit:      auditLog,
		capture:    capture,
		compare:    compare,
		saltLength: saltLength,
		log:        log.With("component", "auth"),
	}
}

// Login runs the linear machine
// START → PASSWORD_CHECKED → (DONE | FACE_REQUIRED) → DONE
// and returns a tagged verdict. Exactly one audit event is written for
// the terminal state reached.
func (e *Engine) Login(ctx context.Context, username, password string) Verdict {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Verdict{Err: fmt.Errorf("%w: username and password must not be empty", common.ErrorValidation)}
	}

	var (
		state   = stateStart
		user    *models.User
		verdict Verdict
	)

	for state != stateDone {
		switch state {
		case stateStart:
			state, user, verdict = e.stepLookup(ctx, username)
		case statePasswordChecked:
			state, verdict = e.stepPasswordAndPolicy(ctx, user, password)
		case stateFaceRequired:
			verdict = e.stepFace(ctx, user, audit.KindMFASuccess)
			state = stateDone
		}
	}

	return verdict
}

// stepLookup resolves the username. A missing user is terminal; the
// verdict kind differs from wrong-password but the rendered message does
// not.
func (e *Engine) stepLookup(ctx context.Context, username string) (loginState, *models.User, Verdict) {
	user, err := e.store.FindByUsername(username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			e.event(ctx, username, audit.KindFailUserNotFound, "unknown user")
			return stateDone, nil, Verdict{Username: username, Err: ErrUserNotFound}
		}
		return stateDone, nil, Verdict{Username: username, Err: err}
	}
	return statePasswordChecked, user, Verdict{}
}

// stepPasswordAndPolicy recomputes the password hash, compares it in
// constant time, and applies the MFA policy on a match.
func (e *Engine) stepPasswordAndPolicy(ctx context.Context, user *models.User, password string) (loginState, Verdict) {
	cfg := e.store.GetConfig()

	hash, err := cryptox.DeriveKey(password, user.Salt, cfg.PBKDF2Iterations)
	if err != nil {
		return stateDone, Verdict{Username: user.Username, Err: fmt.Errorf("%w: %v", common.ErrorInternal, err)}
	}
	if !cryptox.HashEqual(hash, user.PasswordHash) {
		e.event(ctx, user.Username, audit.KindFailWrongPassword, "password mismatch")
		return stateDone, Verdict{Username: user.Username, Err: ErrWrongCredentials}
	}

	if !cfg.ForceMFA {
		e.event(ctx, user.Username, audit.KindSuccess, "password factor accepted")
		return stateDone, Verdict{OK: true, Factors: 1, Username: user.Username}
	}

	if !user.HasFace() {
		e.event(ctx, user.Username, audit.KindFailFaceMismatch, "mfa required but no face enrolled")
		return stateDone, Verdict{Username: user.Username, Err: ErrMfaNotEnrolled}
	}

	return stateFaceRequired, Verdict{}
}

// stepFace captures a fresh probe and compares it against the stored
// template. A distance at or below the threshold passes; equality is a
// pass, not a near miss.
func (e *Engine) stepFace(ctx context.Context, user *models.User, successKind audit.Kind) Verdict {
	cfg := e.store.GetConfig()

	probe, err := e.captureProbe(ctx)
	if err != nil {
		kind, reason := classifyFaceError(err)
		e.event(ctx, user.Username, audit.KindFailFaceMismatch, reason)
		return Verdict{Username: user.Username, Err: kind}
	}

	distance, err := e.compareDistance(ctx, user.FaceTemplate, probe)
	if err != nil {
		kind, reason := classifyFaceError(err)
		e.event(ctx, user.Username, audit.KindFailFaceMismatch, reason)
		return Verdict{Username: user.Username, Err: kind}
	}

	if distance <= cfg.FaceThreshold {
		e.event(ctx, user.Username, successKind, fmt.Sprintf("distance=%.4f threshold=%.4f", distance, cfg.FaceThreshold))
		return Verdict{OK: true, Factors: 2, Username: user.Username}
	}

	e.event(ctx, user.Username, audit.KindFailFaceMismatch,
		fmt.Sprintf("distance=%.4f threshold=%.4f", distance, cfg.FaceThreshold))
	return Verdict{Username: user.Username, Err: ErrFaceMismatch}
}

// Register creates a password-only account. The username must be
// non-empty after trimming; the password must meet the minimum length.
func (e *Engine) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username must not be empty", common.ErrorValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}

	cfg := e.store.GetConfig()
	salt, err := cryptox.GenerateSalt(e.saltLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	hash, err := cryptox.DeriveKey(password, salt, cfg.PBKDF2Iterations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	user := &models.User{Username: username, Salt: salt, PasswordHash: hash}
	id, err := e.store.Insert(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	e.event(ctx, username, audit.KindUserRegistered, "")
	e.log.Info(ctx, "user registered", "username", username, "id", id)
	return user, nil
}

// RegisterWithFace creates the account, then enrols the face factor from
// a fresh probe. The probe is validated by the detection service before
// it is stored as the template.
func (e *Engine) RegisterWithFace(ctx context.Context, username, password string) (*models.User, error) {
	user, err := e.Register(ctx, username, password)
	if err != nil {
		return nil, err
	}

	probe, err := e.captureProbe(ctx)
	if err != nil {
		kind, _ := classifyFaceError(err)
		return nil, kind
	}
	if err := e.detectProbe(ctx, probe); err != nil {
		kind, _ := classifyFaceError(err)
		return nil, fmt.Errorf("enrolment probe rejected: %w", kind)
	}

	user.FaceEnabled = true
	user.FaceTemplate = probe
	if err := e.store.Update(ctx, user); err != nil {
		return nil, err
	}

	e.log.Info(ctx, "face factor enrolled", "username", username)
	return user, nil
}

// ChangePassword verifies the old password and, when the user has the
// face factor enabled, requires a fresh face check regardless of the
// global MFA policy, because this is a sensitive mutation. A fresh salt
// is generated for the new password.
func (e *Engine) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" || oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: all fields are required", common.ErrorValidation)
	}
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	if oldPassword == newPassword {
		return fmt.Errorf("%w: new password must differ from the old one", common.ErrorValidation)
	}

	user, err := e.store.FindByUsername(username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			e.event(ctx, username, audit.KindFailUserNotFound, "unknown user")
			return ErrUserNotFound
		}
		return err
	}

	cfg := e.store.GetConfig()
	oldHash, err := cryptox.DeriveKey(oldPassword, user.Salt, cfg.PBKDF2Iterations)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !cryptox.HashEqual(oldHash, user.PasswordHash) {
		e.event(ctx, username, audit.KindFailWrongPassword, "password change rejected")
		return ErrWrongCredentials
	}

	if user.HasFace() {
		if v := e.stepFace(ctx, user, audit.KindMFASuccess); !v.OK {
			return v.Err
		}
	}

	newSalt, err := cryptox.GenerateSalt(e.saltLength)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	newHash, err := cryptox.DeriveKey(newPassword, newSalt, cfg.PBKDF2Iterations)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	user.Salt = newSalt
	user.PasswordHash = newHash
	if err := e.store.Update(ctx, user); err != nil {
		return err
	}

	e.event(ctx, username, audit.KindPasswordChanged, "")
	e.log.Info(ctx, "password changed", "username", username)
	return nil
}

// VerifyFace runs a standalone face re-verification for an enrolled
// user, independent of any login attempt.
func (e *Engine) VerifyFace(ctx context.Context, username string) error {
	user, err := e.store.FindByUsername(username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.HasFace() {
		return ErrMfaNotEnrolled
	}

	if v := e.stepFace(ctx, user, audit.KindMFASuccess); !v.OK {
		return v.Err
	}
	return nil
}

func (e *Engine) captureProbe(ctx context.Context) ([]byte, error) {
	if e.capture == nil {
		return nil, ErrFaceUnavailable
	}
	return e.capture.CaptureProbe(ctx)
}

func (e *Engine) compareDistance(ctx context.Context, stored, probe []byte) (float64, error) {
	if e.compare == nil {
		return 0, ErrFaceUnavailable
	}
	return e.compare.CompareDistance(ctx, stored, probe)
}

func (e *Engine) detectProbe(ctx context.Context, probe []byte) error {
	if e.compare == nil {
		return ErrFaceUnavailable
	}
	return e.compare.Detect(ctx, probe)
}

// classifyFaceError maps collaborator failures onto the engine's failure
// kinds. A user abort is distinct from a mismatch and from an outage; a
// service error is never downgraded to a pass.
func classifyFaceError(err error) (error, string) {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrFaceCaptureCancelled, "capture cancelled"
	case errors.Is(err, ErrFaceCaptureCancelled):
		return ErrFaceCaptureCancelled, "capture cancelled"
	case errors.Is(err, faceid.ErrNoFace):
		return fmt.Errorf("%w: %v", ErrFaceUnavailable, err), "no face in probe"
	case errors.Is(err, ErrFaceUnavailable), errors.Is(err, faceid.ErrServiceUnavailable):
		return ErrFaceUnavailable, "face service unavailable"
	default:
		return fmt.Errorf("%w: %v", ErrFaceUnavailable, err), "face service unavailable"
	}
}

// event writes one audit line; an audit write failure is logged but does
// not change the verdict already reached.
func (e *Engine) event(ctx context.Context, username string, kind audit.Kind, reason string) {
	if err := e.audit.Event(ctx, username, kind, reason); err != nil {
		e.log.Error(ctx, "audit write failed", "username", username, "kind", string(kind), "error", err)
	}
}
