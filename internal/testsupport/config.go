package testsupport

import (
	"path/filepath"
	"testing"

	"captiond/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Provider.APIKey = "test-key"
	cfg.UploadDir = filepath.Join(base, "uploads")
	cfg.TempDir = filepath.Join(base, "temp")
	cfg.DownloadDir = filepath.Join(base, "downloads")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithProviderKey sets the provider API key on the test config.
func WithProviderKey(key string) ConfigOption {
	return func(c *config.Config) {
		c.Provider.APIKey = key
	}
}

// WithMaxFileBytes caps upload size on the test config.
func WithMaxFileBytes(limit int64) ConfigOption {
	return func(c *config.Config) {
		c.Upload.MaxFileBytes = limit
	}
}
