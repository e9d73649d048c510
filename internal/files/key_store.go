package files

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MasterKeyEnv overrides the key file when set.
const MasterKeyEnv = "MASTER_KEY_HEX"

// ErrMasterKeyExists is returned by WriteMasterKey when the file exists and
// overwriting was not requested.
var ErrMasterKeyExists = errors.New("master key file already exists")

// ReadMasterKey reads the 32-byte master key from MASTER_KEY_HEX, falling
// back to the hex file at path.
func ReadMasterKey(path string) ([]byte, error) {
	h := os.Getenv(MasterKeyEnv)
	if h == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s not set and %s not readable: %w", MasterKeyEnv, path, err)
		}
		h = string(data)
	}
	return ParseMasterKey(h)
}

// ParseMasterKey decodes a hex master key and checks its length.
func ParseMasterKey(h string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(h))
	if err != nil {
		return nil, fmt.Errorf("master key hex decode error: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("master key length must be 32 bytes (hex 64 chars), got %d", len(b))
	}
	return b, nil
}

// WriteMasterKey stores key as hex at path with owner-only permissions.
func WriteMasterKey(path string, key []byte, force bool) error {
	if !force && FileExists(path) {
		return ErrMasterKeyExists
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0o600)
}

// FileExists checks if the given file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
