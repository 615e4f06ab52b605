package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/cryptox"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

// frameOverhead is the fixed framing around the ciphertext in the data
// file: a 12-byte nonce prefix and a 16-byte tag suffix.
const frameOverhead = cryptox.NonceSize + cryptox.TagSize

// Store owns the single encrypted data file and the live in-memory data
// model. Every mutation is followed by a full re-seal and persist; there
// is no write-ahead buffering. The store assumes single-process,
// single-caller access.
type Store struct {
	path   string
	key    []byte
	model  *models.DataModel
	nextID int
	log    logging.Logger
}

// Open loads the store at path with the given 32-byte data key.
//
// If the file is absent, a fresh empty model at the current schema
// version with the default config is created and persisted immediately.
// If present, the file is split into nonce/ciphertext/tag, authenticated
// and decrypted, decoded, migrated to the current version, and checked
// against the crypto layer's algorithm identifiers. An authentication
// failure is fatal for the load; the store never falls back to treating
// a corrupted file as empty.
func Open(ctx context.Context, path string, key []byte, log logging.Logger) (*Store, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: data key must be %d bytes", common.ErrorStorage, cryptox.KeySize)
	}

	s := &Store{path: path, key: key, nextID: 1, log: log.With("component", "store")}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.log.Info(ctx, "data file absent, initializing empty store", "path", path)
		s.model = models.NewDataModel(CurrentVersion)
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrorStorage, path, err)
	}

	if len(raw) < frameOverhead {
		return nil, fmt.Errorf("%w: data file is %d bytes, minimum %d",
			common.ErrorMalformedRecord, len(raw), frameOverhead)
	}

	nonce := raw[:cryptox.NonceSize]
	tag := raw[len(raw)-cryptox.TagSize:]
	ciphertext := raw[cryptox.NonceSize : len(raw)-cryptox.TagSize]

	plaintext, err := cryptox.Open(key, nonce, ciphertext, tag, nil)
	if err != nil {
		s.log.Error(ctx, "data file failed integrity check", "path", path)
		return nil, fmt.Errorf("%w: %s", common.ErrorIntegrity, path)
	}

	rec, err := Decode(plaintext)
	if err != nil {
		return nil, err
	}
	if rec, err = Migrate(rec); err != nil {
		return nil, err
	}
	model, err := ToModel(rec)
	if err != nil {
		return nil, err
	}
	if err := verifyConfig(model.Config); err != nil {
		return nil, err
	}

	s.model = model
	for _, u := range model.Users {
		if u.ID >= s.nextID {
			s.nextID = u.ID + 1
		}
	}

	s.log.Info(ctx, "store loaded", "users", len(model.Users), "version", model.Version)
	return s, nil
}

// Close releases the in-memory secret key by overwriting it. The store
// must not be used afterwards.
func (s *Store) Close() {
	common.WipeByteArray(s.key)
	s.key = nil
	s.model = nil
}

// FindByUsername returns a copy of the named user, or ErrorNotFound.
// Username matching is case-sensitive.
func (s *Store) FindByUsername(name string) (*models.User, error) {
	for _, u := range s.model.Users {
		if u.Username == name {
			return u.Clone(), nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", name, common.ErrorNotFound)
}

// ListAll returns defensive copies of every user record.
func (s *Store) ListAll() []*models.User {
	out := make([]*models.User, 0, len(s.model.Users))
	for _, u := range s.model.Users {
		out = append(out, u.Clone())
	}
	return out
}

// Insert adds a new user, assigns the next id, and persists. The id
// sequence only grows; ids are never reused even after deletes.
func (s *Store) Insert(ctx context.Context, user *models.User) (int, error) {
	if user.Username == "" {
		return 0, fmt.Errorf("%w: empty username", common.ErrorValidation)
	}
	if err := checkFaceInvariant(user); err != nil {
		return 0, err
	}
	for _, u := range s.model.Users {
		if u.Username == user.Username {
			return 0, fmt.Errorf("user %q: %w", user.Username, common.ErrorDuplicateUsername)
		}
	}

	stored := user.Clone()
	stored.ID = s.nextID

	s.model.Users = append(s.model.Users, stored)
	if err := s.persist(); err != nil {
		s.model.Users = s.model.Users[:len(s.model.Users)-1]
		return 0, err
	}
	s.nextID++

	s.log.Info(ctx, "user inserted", "username", stored.Username, "id", stored.ID)
	return stored.ID, nil
}

// Update replaces the record with the same username and persists.
func (s *Store) Update(ctx context.Context, user *models.User) error {
	if err := checkFaceInvariant(user); err != nil {
		return err
	}
	for i, u := range s.model.Users {
		if u.Username == user.Username {
			prev := s.model.Users[i]
			stored := user.Clone()
			stored.ID = prev.ID

			s.model.Users[i] = stored
			if err := s.persist(); err != nil {
				s.model.Users[i] = prev
				return err
			}
			s.log.Info(ctx, "user updated", "username", stored.Username)
			return nil
		}
	}
	return fmt.Errorf("user %q: %w", user.Username, common.ErrorNotFound)
}

// Delete removes the named user and persists. The freed id is not
// reissued.
func (s *Store) Delete(ctx context.Context, username string) error {
	for i, u := range s.model.Users {
		if u.Username == username {
			prev := s.model.Users
			s.model.Users = append(append([]*models.User{}, prev[:i]...), prev[i+1:]...)
			if err := s.persist(); err != nil {
				s.model.Users = prev
				return err
			}
			s.log.Info(ctx, "user deleted", "username", username)
			return nil
		}
	}
	return fmt.Errorf("user %q: %w", username, common.ErrorNotFound)
}

// Version returns the schema version of the loaded model.
func (s *Store) Version() int {
	return s.model.Version
}

// GetConfig returns a copy of the system configuration.
func (s *Store) GetConfig() models.SystemConfig {
	return s.model.Config
}

// SetConfig validates and persists a new system configuration.
func (s *Store) SetConfig(ctx context.Context, cfg models.SystemConfig) error {
	if err := verifyConfig(cfg); err != nil {
		return err
	}
	prev := s.model.Config
	s.model.Config = cfg
	if err := s.persist(); err != nil {
		s.model.Config = prev
		return err
	}
	s.log.Info(ctx, "system config updated", "force_mfa", cfg.ForceMFA, "face_threshold", cfg.FaceThreshold)
	return nil
}

// persist re-encodes the model, seals it with a fresh nonce, and
// overwrites the data file as nonce || ciphertext || tag in one atomic
// write.
func (s *Store) persist() error {
	plaintext, err := Encode(s.model)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}

	nonce, ciphertext, tag, err := cryptox.Seal(s.key, plaintext, nil)
	if err != nil {
		return fmt.Errorf("%w: sealing data: %v", common.ErrorStorage, err)
	}

	framed := make([]byte, 0, len(nonce)+len(ciphertext)+len(tag))
	framed = append(framed, nonce...)
	framed = append(framed, ciphertext...)
	framed = append(framed, tag...)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: creating data directory: %v", common.ErrorStorage, err)
	}
	if err := writeFileAtomic(s.path, framed, 0o600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", common.ErrorStorage, s.path, err)
	}
	return nil
}

// verifyConfig rejects configs whose declared algorithms do not match
// what the crypto layer implements. A mismatch is a configuration
// integrity bug, not something to tolerate silently.
func verifyConfig(cfg models.SystemConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.HashAlgorithm != cryptox.HashAlgorithm {
		return fmt.Errorf("%w: config declares hash algorithm %q, implementation is %q",
			common.ErrorStorage, cfg.HashAlgorithm, cryptox.HashAlgorithm)
	}
	if cfg.EncryptionAlgorithm != cryptox.CipherAlgorithm {
		return fmt.Errorf("%w: config declares cipher %q, implementation is %q",
			common.ErrorStorage, cfg.EncryptionAlgorithm, cryptox.CipherAlgorithm)
	}
	return nil
}

// checkFaceInvariant enforces: face_enabled implies a non-empty template.
func checkFaceInvariant(u *models.User) error {
	if u.FaceEnabled && len(u.FaceTemplate) == 0 {
		return fmt.Errorf("%w: face factor enabled without a template", common.ErrorValidation)
	}
	return nil
}
