package storage

import (
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/cryptox"
)

// CurrentVersion is the schema version this build reads and writes.
//
// Version history:
//
//	1: per-user "face_embedding" float vector compared locally.
//	2: opaque "face_image_data" template compared by the external
//	   service; config carries algorithm identifiers.
const CurrentVersion = 2

// migrations[v] upgrades a record from version v to v+1. Applied in
// order until the record reaches CurrentVersion.
var migrations = map[int]func(fields map[string]any) error{
	1: migrateV1toV2,
}

// Migrate upgrades a decoded record to CurrentVersion. A record already
// at the current version is returned unchanged. Versions newer than
// CurrentVersion are fatal, never silently accepted.
func Migrate(rec *RawRecord) (*RawRecord, error) {
	if rec.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: record version %d, supported up to %d",
			common.ErrorVersionTooNew, rec.Version, CurrentVersion)
	}
	if rec.Version < 1 {
		return nil, fmt.Errorf("%w: invalid record version %d", common.ErrorMalformedRecord, rec.Version)
	}

	for rec.Version < CurrentVersion {
		step, ok := migrations[rec.Version]
		if !ok {
			return nil, fmt.Errorf("%w: no migration from version %d", common.ErrorStorage, rec.Version)
		}
		if err := step(rec.Fields); err != nil {
			return nil, fmt.Errorf("migrating from version %d: %w", rec.Version, err)
		}
		rec.Version++
		rec.Fields["version"] = rec.Version
	}

	return rec, nil
}

// migrateV1toV2 drops the legacy local embedding vectors and disables
// the face factor for users without an opaque template; those users must
// re-enrol. Config gains algorithm metadata if it predates it.
func migrateV1toV2(fields map[string]any) error {
	users, ok := fields["users"].([]any)
	if !ok {
		return fmt.Errorf("%w: users is not a list", common.ErrorMalformedRecord)
	}

	for _, entry := range users {
		user, ok := entry.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: user entry is not a record", common.ErrorMalformedRecord)
		}
		delete(user, "face_embedding")
		if tpl, ok := user["face_image_data"].(string); !ok || tpl == "" {
			user["face_enabled"] = false
			delete(user, "face_image_data")
		}
	}

	cfg, ok := fields["config"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: config is not a record", common.ErrorMalformedRecord)
	}
	if _, ok := cfg["hash_algorithm"]; !ok {
		cfg["hash_algorithm"] = cryptox.HashAlgorithm
	}
	if _, ok := cfg["encryption_algorithm"]; !ok {
		cfg["encryption_algorithm"] = cryptox.CipherAlgorithm
	}
	if _, ok := cfg["pbkdf2_iterations"]; !ok {
		cfg["pbkdf2_iterations"] = cryptox.DefaultIterations
	}

	return nil
}
