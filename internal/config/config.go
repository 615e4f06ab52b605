// Package config handles static startup configuration: defaults, an
// optional JSON overlay, and command-line flags, validated before use.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/common"
)

// Config holds runtime settings for FaceGuard.
//
// Fields:
//   - DataDir: directory holding data.bin, data.key, admin.key, auth.log.
//   - PBKDF2Iterations / SaltLength: password stretching parameters.
//   - DefaultForceMFA / DefaultFaceThreshold: policy applied to a fresh store.
//   - AdminBootstrapPassword: password used to initialize admin.key on first use.
//   - FaceCompareURL / FaceDetectURL: endpoints of the face comparison service.
//   - FaceAPIKey / FaceAPISecret: credentials for that service.
//   - FaceRequestTimeout: per-request timeout on face service calls.
type Config struct {
	DataDir                string
	PBKDF2Iterations       int
	SaltLength             int
	DefaultForceMFA        bool
	DefaultFaceThreshold   float64
	AdminBootstrapPassword string
	FaceCompareURL         string
	FaceDetectURL          string
	FaceAPIKey             string
	FaceAPISecret          string
	FaceRequestTimeout     time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: The admin bootstrap password is insecure and should be overridden.
func (c *Config) LoadDefaults() {
	c.DataDir = "data"
	c.PBKDF2Iterations = 200000
	c.SaltLength = 32
	c.DefaultForceMFA = true
	c.DefaultFaceThreshold = 0.3
	c.AdminBootstrapPassword = "admin123"
	c.FaceCompareURL = "https://api-us.faceplusplus.com/facepp/v3/compare"
	c.FaceDetectURL = "https://api-us.faceplusplus.com/facepp/v3/detect"
	c.FaceAPIKey = ""
	c.FaceAPISecret = ""
	c.FaceRequestTimeout = 10 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags. The
// result is validated; invalid settings are an error, never silently
// replaced.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration surface before any component uses it.
func (c *Config) Validate() error {
	if c.PBKDF2Iterations <= 0 {
		return fmt.Errorf("%w: pbkdf2 iterations must be positive, got %d", common.ErrorValidation, c.PBKDF2Iterations)
	}
	if c.SaltLength <= 0 {
		return fmt.Errorf("%w: salt length must be positive, got %d", common.ErrorValidation, c.SaltLength)
	}
	if c.DefaultFaceThreshold < 0 || c.DefaultFaceThreshold > 1 {
		return fmt.Errorf("%w: face threshold %v out of range [0,1]", common.ErrorValidation, c.DefaultFaceThreshold)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data directory must not be empty", common.ErrorValidation)
	}
	return nil
}

// DataFilePath returns the path of the encrypted user database.
func (c *Config) DataFilePath() string { return filepath.Join(c.DataDir, "data.bin") }

// KeyFilePath returns the path of the symmetric data key file.
func (c *Config) KeyFilePath() string { return filepath.Join(c.DataDir, "data.key") }

// AdminKeyPath returns the path of the admin credential file.
func (c *Config) AdminKeyPath() string { return filepath.Join(c.DataDir, "admin.key") }

// AuditLogPath returns the path of the append-only auth event log.
func (c *Config) AuditLogPath() string { return filepath.Join(c.DataDir, "auth.log") }
