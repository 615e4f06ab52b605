package models

import (
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/common"
)

// SystemConfig is the global authentication policy plus descriptive
// algorithm metadata. The algorithm fields must match what the crypto
// layer actually implements; the store verifies this on load.
type SystemConfig struct {
	ForceMFA            bool    `json:"force_mfa"`
	FaceThreshold       float64 `json:"face_threshold"`
	HashAlgorithm       string  `json:"hash_algorithm"`
	EncryptionAlgorithm string  `json:"encryption_algorithm"`
	PBKDF2Iterations    int     `json:"pbkdf2_iterations"`
}

// DefaultSystemConfig returns the policy applied to a freshly initialized
// store.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		ForceMFA:            true,
		FaceThreshold:       0.3,
		HashAlgorithm:       "PBKDF2-HMAC-SHA256",
		EncryptionAlgorithm: "AES-256-GCM",
		PBKDF2Iterations:    200000,
	}
}

// Validate checks value ranges before the config is accepted.
func (c SystemConfig) Validate() error {
	if c.FaceThreshold < 0 || c.FaceThreshold > 1 {
		return fmt.Errorf("%w: face threshold %v out of range [0,1]", common.ErrorValidation, c.FaceThreshold)
	}
	if c.PBKDF2Iterations <= 0 {
		return fmt.Errorf("%w: pbkdf2 iterations must be positive", common.ErrorValidation)
	}
	return nil
}
