package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args []string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"faceguard"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 200000, cfg.PBKDF2Iterations)
	assert.Equal(t, 32, cfg.SaltLength)
	assert.True(t, cfg.DefaultForceMFA)
	assert.InDelta(t, 0.3, cfg.DefaultFaceThreshold, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.FaceRequestTimeout)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero iterations", func(c *Config) { c.PBKDF2Iterations = 0 }, true},
		{"negative salt length", func(c *Config) { c.SaltLength = -1 }, true},
		{"threshold above one", func(c *Config) { c.DefaultFaceThreshold = 1.01 }, true},
		{"threshold below zero", func(c *Config) { c.DefaultFaceThreshold = -0.01 }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"threshold boundary low", func(c *Config) { c.DefaultFaceThreshold = 0 }, false},
		{"threshold boundary high", func(c *Config) { c.DefaultFaceThreshold = 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.DataDir = "/tmp/fg"

	assert.Equal(t, "/tmp/fg/data.bin", cfg.DataFilePath())
	assert.Equal(t, "/tmp/fg/data.key", cfg.KeyFilePath())
	assert.Equal(t, "/tmp/fg/admin.key", cfg.AdminKeyPath())
	assert.Equal(t, "/tmp/fg/auth.log", cfg.AuditLogPath())
}

func TestLoadConfig_RejectsInvalidOverlay(t *testing.T) {
	file := writeTempConfig(t, `{"pbkdf2_iterations": -5}`)
	withArgs(t, []string{"-c", file})

	_, err := LoadConfig()
	require.Error(t, err)
}
