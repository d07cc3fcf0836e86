package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathsHonourHomeOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	db, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("db path: %v", err)
	}
	if db != filepath.Join(home, "kcal.db") {
		t.Fatalf("unexpected db path %q", db)
	}
	cfg, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if cfg != filepath.Join(home, "config.yaml") {
		t.Fatalf("unexpected config path %q", cfg)
	}
}

func TestEnsureParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "kcal.db")
	if err := EnsureParentDir(path); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if fi, err := os.Stat(filepath.Dir(path)); err != nil || !fi.IsDir() {
		t.Fatalf("expected directory, got %v", err)
	}
}
