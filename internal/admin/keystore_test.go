package admin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/logging"
)

const testIterations = 1000

func newTestKeyStore(t *testing.T) *KeyStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admin.key")
	return NewKeyStore(path, 32, testIterations, logging.NewDefault())
}

func TestKeyStore_InitializeAndVerify(t *testing.T) {
	ctx := context.Background()
	ks := newTestKeyStore(t)

	require.NoError(t, ks.EnsureInitialized(ctx, "admin123"))

	assert.NoError(t, ks.Verify(ctx, "admin123"))
	assert.ErrorIs(t, ks.Verify(ctx, "wrong"), ErrWrongAdminKey)
}

func TestKeyStore_InitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ks := newTestKeyStore(t)

	require.NoError(t, ks.EnsureInitialized(ctx, "first-pass"))
	// a second call with a different bootstrap must not replace the key
	require.NoError(t, ks.EnsureInitialized(ctx, "second-pass"))

	assert.NoError(t, ks.Verify(ctx, "first-pass"))
	assert.ErrorIs(t, ks.Verify(ctx, "second-pass"), ErrWrongAdminKey)
}

func TestKeyStore_FileFormat(t *testing.T) {
	ctx := context.Background()
	ks := newTestKeyStore(t)
	require.NoError(t, ks.EnsureInitialized(ctx, "admin123"))

	raw, err := os.ReadFile(ks.path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(raw))
	parts := strings.Split(line, ":")
	require.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])
	assert.NotEmpty(t, parts[1])

	info, err := os.Stat(ks.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestKeyStore_MalformedFile(t *testing.T) {
	ctx := context.Background()
	ks := newTestKeyStore(t)
	require.NoError(t, os.WriteFile(ks.path, []byte("not a key line"), 0o600))

	assert.ErrorIs(t, ks.Verify(ctx, "admin123"), common.ErrorMalformedRecord)
}

func TestKeyStore_Rotate(t *testing.T) {
	ctx := context.Background()
	ks := newTestKeyStore(t)
	require.NoError(t, ks.EnsureInitialized(ctx, "admin123"))

	assert.ErrorIs(t, ks.Rotate(ctx, "wrong", "new-secret"), ErrWrongAdminKey)
	assert.ErrorIs(t, ks.Rotate(ctx, "admin123", "short"), common.ErrorValidation)

	require.NoError(t, ks.Rotate(ctx, "admin123", "new-secret"))
	assert.NoError(t, ks.Verify(ctx, "new-secret"))
	assert.ErrorIs(t, ks.Verify(ctx, "admin123"), ErrWrongAdminKey)
}
