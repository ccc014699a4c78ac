package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	UploadDir   string `toml:"upload_dir"`
	TempDir     string `toml:"temp_dir"`
	DownloadDir string `toml:"download_dir"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
}

// Logging controls log output format and verbosity.
type Logging struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Provider configures the remote transcription/translation provider.
type Provider struct {
	APIKey               string  `toml:"api_key"`
	BaseURL              string  `toml:"base_url"`
	TranscriptionModel   string  `toml:"transcription_model"`
	TranslationModel     string  `toml:"translation_model"`
	Temperature          float64 `toml:"temperature"`
	RequestTimeoutSecs   int     `toml:"request_timeout_seconds"`
	MaxAttempts          int     `toml:"max_attempts"`
	LocalWhisperBinary   string  `toml:"local_whisper_binary"`
	BreakerThreshold     int     `toml:"breaker_failure_threshold"`
	BreakerCooldownSecs  int     `toml:"breaker_cooldown_seconds"`
	SuspiciousRejectRate float64 `toml:"suspicious_reject_ratio"`
}

// Media configures audio extraction and segmentation.
type Media struct {
	FFmpegBinary        string  `toml:"ffmpeg_binary"`
	FFprobeBinary       string  `toml:"ffprobe_binary"`
	SegmentSeconds      float64 `toml:"segment_seconds"`
	MaxSegmentBytes     int64   `toml:"max_segment_bytes"`
	ChunkThresholdBytes int64   `toml:"chunk_threshold_bytes"`
}

// Filter holds the heuristic cleanup thresholds. These are empirically tuned
// values; keep them configurable rather than baked in.
type Filter struct {
	MaxCueSeconds      float64 `toml:"max_cue_seconds"`
	AdultMaxCueSeconds float64 `toml:"adult_max_cue_seconds"`
	RepetitionCount    int     `toml:"repetition_count"`
	MergeGapSeconds    float64 `toml:"merge_gap_seconds"`
	AdultRatio         float64 `toml:"adult_ratio"`
	ConversationRatio  float64 `toml:"conversation_ratio"`
}

// Translate configures the translation stage.
type Translate struct {
	MaxBatchChars    int `toml:"max_batch_chars"`
	BatchPauseMillis int `toml:"batch_pause_millis"`
	MaxAttempts      int `toml:"max_attempts"`
}

// Admission configures per-client upload gating.
type Admission struct {
	CooldownSeconds  int `toml:"cooldown_seconds"`
	RetentionSeconds int `toml:"retention_seconds"`
}

// Jobs configures the in-memory job table retention sweep.
type Jobs struct {
	RetentionMinutes     int `toml:"retention_minutes"`
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
}

// Upload configures submission validation limits.
type Upload struct {
	MaxFileBytes int64 `toml:"max_file_bytes"`
}

// Config is the root configuration document.
type Config struct {
	Paths     `toml:"paths"`
	Logging   `toml:"logging"`
	Provider  Provider  `toml:"provider"`
	Media     Media     `toml:"media"`
	Filter    Filter    `toml:"filter"`
	Translate Translate `toml:"translate"`
	Admission Admission `toml:"admission"`
	Jobs      Jobs      `toml:"jobs"`
	Upload    Upload    `toml:"upload"`
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/captiond/config.toml")
}

// Load reads configuration from path, falling back to defaults when the file
// is absent. It returns the config, the path consulted, and whether a file
// was actually read.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	}
	resolved = expandPath(resolved)

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, resolved, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err == nil, err
	}
	return &cfg, resolved, err == nil, nil
}

// DatabasePath returns the artifact ledger location, kept beside the
// state directories rather than in the served download tree.
func (c *Config) DatabasePath() string {
	return filepath.Join(filepath.Dir(c.LogDir), "captiond.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(filepath.Dir(c.LogDir), "captiond.lock")
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	path = expandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates every directory the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.UploadDir, c.TempDir, c.DownloadDir, c.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.UploadDir = expandPath(c.UploadDir)
	c.TempDir = expandPath(c.TempDir)
	c.DownloadDir = expandPath(c.DownloadDir)
	c.LogDir = expandPath(c.LogDir)
	c.Logging.LogLevel = strings.ToLower(strings.TrimSpace(c.Logging.LogLevel))
	c.Logging.LogFormat = strings.ToLower(strings.TrimSpace(c.Logging.LogFormat))
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Clean(path)
}
