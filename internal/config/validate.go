package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.APIBind) == "" {
		problems = append(problems, "paths.api_bind must not be empty")
	}
	for name, dir := range map[string]string{
		"paths.upload_dir":   c.UploadDir,
		"paths.temp_dir":     c.TempDir,
		"paths.download_dir": c.DownloadDir,
		"paths.log_dir":      c.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			problems = append(problems, name+" must not be empty")
		}
	}

	switch c.Logging.LogFormat {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.log_format: unsupported value %q", c.Logging.LogFormat))
	}

	if c.Provider.MaxAttempts < 1 {
		problems = append(problems, "provider.max_attempts must be at least 1")
	}
	if c.Provider.BreakerThreshold < 1 {
		problems = append(problems, "provider.breaker_failure_threshold must be at least 1")
	}
	if c.Provider.BreakerCooldownSecs < 1 {
		problems = append(problems, "provider.breaker_cooldown_seconds must be at least 1")
	}
	if c.Provider.SuspiciousRejectRate <= 0 || c.Provider.SuspiciousRejectRate > 1 {
		problems = append(problems, "provider.suspicious_reject_ratio must be in (0, 1]")
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 1 {
		problems = append(problems, "provider.temperature must be in [0, 1]")
	}

	if c.Media.SegmentSeconds <= 0 {
		problems = append(problems, "media.segment_seconds must be positive")
	}
	if c.Media.MaxSegmentBytes <= 0 {
		problems = append(problems, "media.max_segment_bytes must be positive")
	}
	if c.Media.ChunkThresholdBytes <= 0 {
		problems = append(problems, "media.chunk_threshold_bytes must be positive")
	}
	if c.Media.ChunkThresholdBytes > c.Media.MaxSegmentBytes {
		problems = append(problems, "media.chunk_threshold_bytes must not exceed media.max_segment_bytes")
	}

	if c.Filter.MaxCueSeconds <= 0 {
		problems = append(problems, "filter.max_cue_seconds must be positive")
	}
	if c.Filter.RepetitionCount < 2 {
		problems = append(problems, "filter.repetition_count must be at least 2")
	}

	if c.Translate.MaxBatchChars < 1 {
		problems = append(problems, "translate.max_batch_chars must be at least 1")
	}
	if c.Translate.MaxAttempts < 1 {
		problems = append(problems, "translate.max_attempts must be at least 1")
	}

	if c.Admission.CooldownSeconds < 0 {
		problems = append(problems, "admission.cooldown_seconds must not be negative")
	}
	if c.Jobs.RetentionMinutes < 1 {
		problems = append(problems, "jobs.retention_minutes must be at least 1")
	}
	if c.Upload.MaxFileBytes <= 0 {
		problems = append(problems, "upload.max_file_bytes must be positive")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
