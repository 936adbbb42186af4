package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.RootDir != "." {
		t.Errorf("RootDir = %q, want %q", cfg.RootDir, ".")
	}
	if !cfg.Recursive {
		t.Error("Recursive should default to true")
	}
	if cfg.PreviewMaxDim != 512 {
		t.Errorf("PreviewMaxDim = %d, want 512", cfg.PreviewMaxDim)
	}
	if cfg.PollIntervalMs != 100 {
		t.Errorf("PollIntervalMs = %d, want 100", cfg.PollIntervalMs)
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
root_dir: /archive
recursive: false
ledger_path: /var/lib/viewer.db
preview_dir: /tmp/previews
preview_max_dim: 256
poll_interval_ms: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.RootDir != "/archive" {
		t.Errorf("RootDir = %q", cfg.RootDir)
	}
	if cfg.Recursive {
		t.Error("Recursive = true, want false")
	}
	if cfg.LedgerPath != "/var/lib/viewer.db" {
		t.Errorf("LedgerPath = %q", cfg.LedgerPath)
	}
	if cfg.PreviewMaxDim != 256 {
		t.Errorf("PreviewMaxDim = %d", cfg.PreviewMaxDim)
	}
	if cfg.PollIntervalMs != 50 {
		t.Errorf("PollIntervalMs = %d", cfg.PollIntervalMs)
	}
}

func TestReadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("root_dir: /archive\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.PreviewMaxDim != 512 || cfg.PollIntervalMs != 100 {
		t.Errorf("omitted fields not defaulted: %+v", cfg)
	}
}

func TestReadErrors(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("root_dir: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
