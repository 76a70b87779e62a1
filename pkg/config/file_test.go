package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileOverlaysOnlySetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 3000\nlogLevel: debug\n"), 0o600); err != nil {
		t.Fatalf("failed to write test config file: %v", err)
	}

	cfg := Default()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("expected port override, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected logLevel override, got %q", cfg.LogLevel)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("expected unset host to keep its default, got %q", cfg.Host)
	}
}

func TestLoadFileMissingPathErrors(t *testing.T) {
	cfg := Default()
	if err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 3000\n"), 0o600); err != nil {
		t.Fatalf("failed to write test config file: %v", err)
	}
	t.Setenv(EnvPort, "4000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 4000 {
		t.Errorf("expected env to override file, got port %d", cfg.Port)
	}
}
