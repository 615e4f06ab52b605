package admin

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/audit"
	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/storage"
)

// UserSummary is the operator view of an account. Salts, hashes and
// face templates are deliberately absent.
type UserSummary struct {
	ID           int
	Username     string
	FaceEnrolled bool
}

// Stats is an aggregate snapshot of the store.
type Stats struct {
	TotalUsers    int
	FaceEnrolled  int
	ForceMFA      bool
	FaceThreshold float64
	SchemaVersion int
}

// Service exposes the management operations. Callers must verify the
// admin key through Authenticate before invoking anything else; the
// service itself is not re-checking on every call.
type Service struct {
	store *storage.Store
	audit *audit.Log
	keys  *KeyStore
	log   logging.Logger
}

// NewService wires the management surface over the given store.
func NewService(store *storage.Store, auditLog *audit.Log, keys *KeyStore, log logging.Logger) *Service {
	return &Service{
		store: store,
		audit: auditLog,
		keys:  keys,
		log:   log.With("component", "admin"),
	}
}

// Authenticate verifies the admin key.
func (s *Service) Authenticate(ctx context.Context, password string) error {
	return s.keys.Verify(ctx, password)
}

// ListUsers returns summaries of all accounts without secret material.
func (s *Service) ListUsers(ctx context.Context) []UserSummary {
	users := s.store.ListAll()
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Username: u.Username, FaceEnrolled: u.HasFace()})
	}
	return out
}

// ResetFace disables the face factor and removes the stored template in
// a single update. The user falls back to password-only and, under a
// forced MFA policy, cannot log in until re-enrolled.
func (s *Service) ResetFace(ctx context.Context, username string) error {
	user, err := s.store.FindByUsername(username)
	if err != nil {
		return err
	}
	if !user.HasFace() {
		return fmt.Errorf("%w: user %q has no face factor enrolled", common.ErrorValidation, username)
	}

	user.FaceEnabled = false
	user.FaceTemplate = nil
	if err := s.store.Update(ctx, user); err != nil {
		return err
	}
	s.log.Info(ctx, "face factor reset", "username", username)
	return nil
}

// DeleteUser removes the account entirely. The freed id is never
// reissued by the store.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if err := s.store.Delete(ctx, username); err != nil {
		return err
	}
	s.log.Info(ctx, "user deleted by admin", "username", username)
	return nil
}

// RecentLogs returns the last count audit lines, oldest first.
func (s *Service) RecentLogs(ctx context.Context, count int) ([]string, error) {
	return s.audit.Recent(count)
}

// SetForceMFA toggles the global two-factor requirement.
func (s *Service) SetForceMFA(ctx context.Context, enabled bool) error {
	cfg := s.store.GetConfig()
	cfg.ForceMFA = enabled
	return s.store.SetConfig(ctx, cfg)
}

// SetFaceThreshold updates the maximum accepted face distance. The
// store rejects values outside [0,1].
func (s *Service) SetFaceThreshold(ctx context.Context, threshold float64) error {
	cfg := s.store.GetConfig()
	cfg.FaceThreshold = threshold
	return s.store.SetConfig(ctx, cfg)
}

// RotateAdminKey changes the admin key after verifying the current one.
func (s *Service) RotateAdminKey(ctx context.Context, current, next string) error {
	return s.keys.Rotate(ctx, current, next)
}

// Stats aggregates counts and current policy.
func (s *Service) Stats(ctx context.Context) Stats {
	cfg := s.store.GetConfig()
	st := Stats{
		ForceMFA:      cfg.ForceMFA,
		FaceThreshold: cfg.FaceThreshold,
		SchemaVersion: s.store.Version(),
	}
	for _, u := range s.store.ListAll() {
		st.TotalUsers++
		if u.HasFace() {
			st.FaceEnrolled++
		}
	}
	return st
}
