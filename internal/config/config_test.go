package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, path, read, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if read {
		t.Errorf("expected no file read for %s", path)
	}
	if cfg.Media.SegmentSeconds != defaultSegmentSeconds {
		t.Errorf("expected default segment seconds, got %v", cfg.Media.SegmentSeconds)
	}
	if cfg.Provider.BreakerThreshold != 5 {
		t.Errorf("expected breaker threshold 5, got %d", cfg.Provider.BreakerThreshold)
	}
	if cfg.Provider.Temperature != defaultTemperature {
		t.Errorf("expected default temperature, got %v", cfg.Provider.Temperature)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[media]
segment_seconds = 120.0

[admission]
cooldown_seconds = 10
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, read, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !read {
		t.Fatal("expected config file to be read")
	}
	if cfg.Media.SegmentSeconds != 120 {
		t.Errorf("expected segment seconds 120, got %v", cfg.Media.SegmentSeconds)
	}
	if cfg.Admission.CooldownSeconds != 10 {
		t.Errorf("expected cooldown 10, got %d", cfg.Admission.CooldownSeconds)
	}
	// Untouched sections keep defaults.
	if cfg.Translate.MaxBatchChars != defaultMaxBatchChars {
		t.Errorf("expected default batch chars, got %d", cfg.Translate.MaxBatchChars)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Media.SegmentSeconds = 0
	cfg.Provider.SuspiciousRejectRate = 2
	cfg.Provider.Temperature = 1.5
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "segment_seconds") {
		t.Errorf("expected segment_seconds in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "suspicious_reject_ratio") {
		t.Errorf("expected suspicious_reject_ratio in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "provider.temperature") {
		t.Errorf("expected provider.temperature in error, got %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.UploadDir = filepath.Join(base, "uploads")
	cfg.TempDir = filepath.Join(base, "temp")
	cfg.DownloadDir = filepath.Join(base, "downloads")
	cfg.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	for _, dir := range []string{cfg.UploadDir, cfg.TempDir, cfg.DownloadDir, cfg.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}
