package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFillsDefaultsForUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("address: lims.example.com\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Address != "lims.example.com" {
		t.Errorf("expected address to come from file, got %q", cfg.Address)
	}
	if cfg.Port != 23 {
		t.Errorf("expected default port 23, got %d", cfg.Port)
	}
	if cfg.SystemUser != "AIX" {
		t.Errorf("expected default system user AIX, got %q", cfg.SystemUser)
	}
	if cfg.HistorySize != 5 {
		t.Errorf("expected default history size 5, got %d", cfg.HistorySize)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "address: lims.example.com\nport: 2323\ncancel_action: \"\\u001b\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 2323 {
		t.Errorf("expected overridden port 2323, got %d", cfg.Port)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestInitFileCreatesDefaultConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist at %s: %v", path, err)
	}

	// A second call must not clobber an edited file.
	if err := os.WriteFile(path, []byte("address: kept\n"), 0o644); err != nil {
		t.Fatalf("writing edited fixture: %v", err)
	}
	if _, err := InitFile(); err != nil {
		t.Fatalf("unexpected error on second InitFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-reading config: %v", err)
	}
	if string(data) != "address: kept\n" {
		t.Errorf("expected InitFile to leave an existing file untouched, got %q", data)
	}
}
