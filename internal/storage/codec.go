// Package storage owns the encrypted credential database: the canonical
// byte form of the data model, schema migration, the symmetric data key
// file, and the single-file store with tamper detection.
package storage

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

// RawRecord is a decoded but not yet schema-validated stored record.
// Fields keeps every top-level key, including ones added by future
// versions, so unknown fields survive a decode/encode round trip.
type RawRecord struct {
	Version int
	Fields  map[string]any
}

// Encode serializes the data model to its canonical plaintext form
// (UTF-8 JSON). The output round-trips through Decode and ToModel.
func Encode(m *models.DataModel) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding data model: %w", err)
	}
	return data, nil
}

// Decode parses plaintext bytes into a version-tagged raw record.
// A missing required top-level key or a non-integer version is a
// malformed record, distinct from any version-mismatch error raised
// later by the migrator.
func Decode(data []byte) (*RawRecord, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorMalformedRecord, err)
	}

	for _, key := range []string{"version", "users", "config"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing required key %q", common.ErrorMalformedRecord, key)
		}
	}

	v, ok := fields["version"].(float64)
	if !ok || v != math.Trunc(v) {
		return nil, fmt.Errorf("%w: version is not an integer", common.ErrorMalformedRecord)
	}

	return &RawRecord{Version: int(v), Fields: fields}, nil
}

// ToModel converts a migrated raw record into the typed data model.
func ToModel(rec *RawRecord) (*models.DataModel, error) {
	rec.Fields["version"] = rec.Version

	data, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, fmt.Errorf("re-encoding raw record: %w", err)
	}

	m := &models.DataModel{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorMalformedRecord, err)
	}
	if m.Users == nil {
		m.Users = []*models.User{}
	}
	return m, nil
}
