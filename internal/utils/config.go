package utils

import (
	"os"
	"path/filepath"
)

// GetProjectRoot walks up from the working directory to the nearest go.mod.
// Falls back to ".".
func GetProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

// ResolvePath makes a relative path absolute against the project root.
// Absolute and empty paths are returned unchanged.
func ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetProjectRoot(), p)
}
