package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/faceguard/internal/common"
)

func TestMigrate_CurrentVersionUnchanged(t *testing.T) {
	m := sampleModel()
	data, err := Encode(m)
	require.NoError(t, err)
	rec, err := Decode(data)
	require.NoError(t, err)

	got, err := Migrate(rec)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, got.Version)

	model, err := ToModel(got)
	require.NoError(t, err)
	assert.Equal(t, m, model)
}

func TestMigrate_FutureVersionFatal(t *testing.T) {
	rec := &RawRecord{Version: CurrentVersion + 1, Fields: map[string]any{}}
	_, err := Migrate(rec)
	assert.ErrorIs(t, err, common.ErrorVersionTooNew)
}

func TestMigrate_InvalidVersion(t *testing.T) {
	rec := &RawRecord{Version: 0, Fields: map[string]any{}}
	_, err := Migrate(rec)
	assert.ErrorIs(t, err, common.ErrorMalformedRecord)
}

func TestMigrate_V1toV2(t *testing.T) {
	data := []byte(`{
		"version": 1,
		"users": [
			{"id": 1, "username": "alice", "salt": "c2FsdA==", "password_hash": "aGFzaA==",
			 "face_enabled": true, "face_embedding": [0.1, 0.2, 0.3]},
			{"id": 2, "username": "bob", "salt": "c2FsdA==", "password_hash": "aGFzaA==",
			 "face_enabled": true, "face_embedding": [0.4],
			 "face_image_data": "dGVtcGxhdGU="},
			{"id": 3, "username": "carol", "salt": "c2FsdA==", "password_hash": "aGFzaA==",
			 "face_enabled": false}
		],
		"config": {"force_mfa": true, "face_threshold": 0.5}
	}`)

	rec, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Version)

	rec, err = Migrate(rec)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, rec.Version)

	m, err := ToModel(rec)
	require.NoError(t, err)
	require.Len(t, m.Users, 3)

	// alice had only a legacy embedding: face factor disabled, no template
	assert.False(t, m.Users[0].FaceEnabled)
	assert.Empty(t, m.Users[0].FaceTemplate)

	// bob had an opaque template: factor survives the migration
	assert.True(t, m.Users[1].FaceEnabled)
	assert.Equal(t, []byte("template"), m.Users[1].FaceTemplate)

	// carol untouched
	assert.False(t, m.Users[2].FaceEnabled)

	// config gains algorithm metadata and keeps its policy values
	assert.Equal(t, "PBKDF2-HMAC-SHA256", m.Config.HashAlgorithm)
	assert.Equal(t, "AES-256-GCM", m.Config.EncryptionAlgorithm)
	assert.Equal(t, 200000, m.Config.PBKDF2Iterations)
	assert.True(t, m.Config.ForceMFA)
	assert.InDelta(t, 0.5, m.Config.FaceThreshold, 1e-9)
}

func TestMigrate_Idempotent(t *testing.T) {
	m := sampleModel()
	data, err := Encode(m)
	require.NoError(t, err)
	rec, err := Decode(data)
	require.NoError(t, err)

	once, err := Migrate(rec)
	require.NoError(t, err)
	twice, err := Migrate(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}
