package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/cryptox"
)

// LoadOrInitKey returns the 32-byte symmetric data key stored at path,
// generating and persisting a fresh random key if the file does not
// exist yet. A key file of the wrong length is a storage error, not
// something to regenerate over.
//
// The caller owns the returned slice for the process lifetime and must
// wipe it on shutdown (common.WipeByteArray).
func LoadOrInitKey(path string) ([]byte, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: creating key directory: %v", common.ErrorStorage, err)
	}

	key, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("%w: key file %s holds %d bytes, expected %d",
				common.ErrorStorage, path, len(key), cryptox.KeySize)
		}
		return key, nil

	case os.IsNotExist(err):
		key, err = common.GenerateRandByteArray(cryptox.KeySize)
		if err != nil {
			return nil, fmt.Errorf("%w: generating data key: %v", common.ErrorStorage, err)
		}
		if err := writeFileAtomic(path, key, 0o600); err != nil {
			return nil, fmt.Errorf("%w: writing key file %s: %v", common.ErrorStorage, path, err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("%w: reading key file %s: %v", common.ErrorStorage, path, err)
	}
}
