// Package app resolves where kcal keeps its files.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName     = "kcal"
	dbFileName     = "kcal.db"
	configFileName = "config.yaml"

	// HomeEnv overrides the data directory.
	HomeEnv = "KCAL_HOME"
)

// Dir returns $KCAL_HOME when set, otherwise kcal/ under the user config dir.
func Dir() (string, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return home, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

func DefaultDBPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFileName), nil
}

func DefaultConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// EnsureParentDir creates the directory holding path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
