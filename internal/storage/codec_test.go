package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

func sampleModel() *models.DataModel {
	m := models.NewDataModel(CurrentVersion)
	m.Users = append(m.Users, &models.User{
		ID:           1,
		Username:     "alice",
		Salt:         []byte("salt-bytes"),
		PasswordHash: []byte("hash-bytes"),
		FaceEnabled:  true,
		FaceTemplate: []byte("template-bytes"),
	})
	return m
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	m := sampleModel()

	data, err := Encode(m)
	require.NoError(t, err)

	rec, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, rec.Version)

	got, err := ToModel(rec)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecode_UnknownFieldsTolerated(t *testing.T) {
	data := []byte(`{
		"version": 2,
		"users": [],
		"config": {"force_mfa": true, "face_threshold": 0.3,
			"hash_algorithm": "PBKDF2-HMAC-SHA256",
			"encryption_algorithm": "AES-256-GCM",
			"pbkdf2_iterations": 200000},
		"future_field": {"anything": [1, 2, 3]}
	}`)

	rec, err := Decode(data)
	require.NoError(t, err)

	_, err = ToModel(rec)
	require.NoError(t, err)
	assert.Contains(t, rec.Fields, "future_field")
}

func TestDecode_MissingRequiredKey(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no version", `{"users": [], "config": {}}`},
		{"no users", `{"version": 2, "config": {}}`},
		{"no config", `{"version": 2, "users": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.ErrorIs(t, err, common.ErrorMalformedRecord)
		})
	}
}

func TestDecode_NotJSON(t *testing.T) {
	_, err := Decode([]byte("not json at all"))
	assert.ErrorIs(t, err, common.ErrorMalformedRecord)
}

func TestDecode_NonIntegerVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version": 1.5, "users": [], "config": {}}`))
	assert.ErrorIs(t, err, common.ErrorMalformedRecord)

	_, err = Decode([]byte(`{"version": "two", "users": [], "config": {}}`))
	assert.ErrorIs(t, err, common.ErrorMalformedRecord)
}

func TestDecode_MalformedDistinctFromVersionMismatch(t *testing.T) {
	// structurally broken record: malformed, not a version error
	_, err := Decode([]byte(`{"version": 99}`))
	require.ErrorIs(t, err, common.ErrorMalformedRecord)
	assert.False(t, errors.Is(err, common.ErrorVersionTooNew))
}
