package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/flagx"
)

// JsonConfig is an intermediate DTO used only for reading the optional
// JSON configuration file. After unmarshalling, set fields are copied
// into the runtime Config. Pointer fields distinguish "absent" from
// zero values so the overlay never clobbers a default with an empty
// entry.
type JsonConfig struct {
	DataDir                *string  `json:"data_dir"`
	PBKDF2Iterations       *int     `json:"pbkdf2_iterations"`
	SaltLength             *int     `json:"salt_length"`
	DefaultForceMFA        *bool    `json:"default_force_mfa"`
	DefaultFaceThreshold   *float64 `json:"default_face_threshold"`
	AdminBootstrapPassword *string  `json:"admin_bootstrap_password"`
	FaceCompareURL         *string  `json:"face_compare_url"`
	FaceDetectURL          *string  `json:"face_detect_url"`
	FaceAPIKey             *string  `json:"face_api_key"`
	FaceAPISecret          *string  `json:"face_api_secret"`
	FaceRequestTimeoutSec  *int     `json:"face_request_timeout_sec"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no file is named, the
// Config is left untouched.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", jsonConfigFile, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", jsonConfigFile, err)
	}

	if c.DataDir != nil {
		config.DataDir = *c.DataDir
	}
	if c.PBKDF2Iterations != nil {
		config.PBKDF2Iterations = *c.PBKDF2Iterations
	}
	if c.SaltLength != nil {
		config.SaltLength = *c.SaltLength
	}
	if c.DefaultForceMFA != nil {
		config.DefaultForceMFA = *c.DefaultForceMFA
	}
	if c.DefaultFaceThreshold != nil {
		config.DefaultFaceThreshold = *c.DefaultFaceThreshold
	}
	if c.AdminBootstrapPassword != nil {
		config.AdminBootstrapPassword = *c.AdminBootstrapPassword
	}
	if c.FaceCompareURL != nil {
		config.FaceCompareURL = *c.FaceCompareURL
	}
	if c.FaceDetectURL != nil {
		config.FaceDetectURL = *c.FaceDetectURL
	}
	if c.FaceAPIKey != nil {
		config.FaceAPIKey = *c.FaceAPIKey
	}
	if c.FaceAPISecret != nil {
		config.FaceAPISecret = *c.FaceAPISecret
	}
	if c.FaceRequestTimeoutSec != nil {
		config.FaceRequestTimeout = time.Duration(*c.FaceRequestTimeoutSec) * time.Second
	}

	return nil
}
