// Package admin provides the operator surface: a separate key file
// gating access, and management operations over the credential store
// that never expose stored secret material.
package admin

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/cryptox"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

// ErrWrongAdminKey is returned when the supplied admin password does not
// match the stored key.
var ErrWrongAdminKey = errors.New("wrong admin key")

// KeyStore holds the admin key as a single line in its own file,
// separate from the encrypted data file:
//
//	base64(salt):base64(hash)
//
// The hash is derived with the same stretching parameters as user
// passwords. Losing the data key does not expose the admin key and vice
// versa.
type KeyStore struct {
	path       string
	saltLength int
	iterations int
	log        logging.Logger
}

// NewKeyStore returns a KeyStore backed by path.
func NewKeyStore(path string, saltLength, iterations int, log logging.Logger) *KeyStore {
	return &KeyStore{
		path:       path,
		saltLength: saltLength,
		iterations: iterations,
		log:        log.With("component", "adminkey"),
	}
}

// EnsureInitialized creates the key file from the bootstrap password if
// it does not exist yet. An existing file is left untouched.
func (k *KeyStore) EnsureInitialized(ctx context.Context, bootstrapPassword string) error {
	if _, err := os.Stat(k.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: checking %s: %v", common.ErrorStorage, k.path, err)
	}

	k.log.Info(ctx, "admin key file absent, initializing from bootstrap password", "path", k.path)
	return k.write(bootstrapPassword)
}

// Verify checks the password against the stored key in constant time.
func (k *KeyStore) Verify(ctx context.Context, password string) error {
	cred, err := k.read()
	if err != nil {
		return err
	}

	candidate, err := cryptox.DeriveKey(password, cred.Salt, k.iterations)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !cryptox.HashEqual(candidate, cred.Hash) {
		k.log.Warn(ctx, "admin key verification failed")
		return ErrWrongAdminKey
	}
	return nil
}

// Rotate replaces the admin key after verifying the current one.
func (k *KeyStore) Rotate(ctx context.Context, currentPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: admin key must be at least 6 characters", common.ErrorValidation)
	}
	if err := k.Verify(ctx, currentPassword); err != nil {
		return err
	}
	if err := k.write(newPassword); err != nil {
		return err
	}
	k.log.Info(ctx, "admin key rotated")
	return nil
}

func (k *KeyStore) write(password string) error {
	salt, err := cryptox.GenerateSalt(k.saltLength)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	hash, err := cryptox.DeriveKey(password, salt, k.iterations)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	line := base64.StdEncoding.EncodeToString(salt) + ":" + base64.StdEncoding.EncodeToString(hash) + "\n"

	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("%w: creating admin key directory: %v", common.ErrorStorage, err)
	}
	if err := os.WriteFile(k.path, []byte(line), 0o600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", common.ErrorStorage, k.path, err)
	}
	return nil
}

func (k *KeyStore) read() (models.AdminCredential, error) {
	var cred models.AdminCredential

	raw, err := os.ReadFile(k.path)
	if err != nil {
		return cred, fmt.Errorf("%w: reading %s: %v", common.ErrorStorage, k.path, err)
	}

	parts := strings.Split(strings.TrimSpace(string(raw)), ":")
	if len(parts) != 2 {
		return cred, fmt.Errorf("%w: admin key file %s", common.ErrorMalformedRecord, k.path)
	}
	if cred.Salt, err = base64.StdEncoding.DecodeString(parts[0]); err != nil {
		return cred, fmt.Errorf("%w: admin key salt: %v", common.ErrorMalformedRecord, err)
	}
	if cred.Hash, err = base64.StdEncoding.DecodeString(parts[1]); err != nil {
		return cred, fmt.Errorf("%w: admin key hash: %v", common.ErrorMalformedRecord, err)
	}
	return cred, nil
}
