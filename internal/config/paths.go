package config

import (
	"os"
	"path/filepath"
)

// UserConfigDir returns ~/.memviz, creating nothing.
func UserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".memviz"), nil
}

// EnsureConfigDir creates dir if missing.
func EnsureConfigDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
