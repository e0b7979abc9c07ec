package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultStateDir returns the directory holding persisted widget state
// (identity database, client config), creating it if needed.
func DefaultStateDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("cannot determine state directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}

	dir := filepath.Join(base, "defmis-widget")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// IdentityDBPath returns the identity database path inside dir.
func IdentityDBPath(dir string) string {
	return filepath.Join(dir, "widget.db")
}

// ConfigPath returns the client config path inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, "config.yaml")
}
