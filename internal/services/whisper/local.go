package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"captiond/internal/services"
	"captiond/internal/subtitle"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Local runs a whisper binary installed on the host. It is the first
// fallback when the remote provider cannot transcribe at all.
type Local struct {
	binary string
	run    commandRunner
}

// LocalOption customizes a Local transcriber.
type LocalOption func(*Local)

// WithLocalRunner overrides command execution, for tests.
func WithLocalRunner(run commandRunner) LocalOption {
	return func(l *Local) {
		if run != nil {
			l.run = run
		}
	}
}

// NewLocal returns a Local transcriber driving the given binary.
func NewLocal(binary string, opts ...LocalOption) *Local {
	l := &Local{binary: strings.TrimSpace(binary)}
	l.run = l.execute
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Available reports whether the binary can be found on the host.
func (l *Local) Available() bool {
	if l.binary == "" {
		return false
	}
	_, err := exec.LookPath(l.binary)
	return err == nil
}

// Transcribe invokes the binary with JSON output and parses the result. The
// JSON sidecar file is removed afterwards.
func (l *Local) Transcribe(ctx context.Context, audioPath, languageCode string) ([]subtitle.Subtitle, error) {
	if l.binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "local", "no local whisper binary configured", nil)
	}
	outputDir := filepath.Dir(audioPath)
	args := []string{
		audioPath,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if code := strings.TrimSpace(languageCode); code != "" {
		args = append(args, "--language", code)
	}

	if err := l.run(ctx, l.binary, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "local", "whisper binary failed", err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, stem+".json")
	payload, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "local", "read whisper output", err)
	}
	defer os.Remove(jsonPath)

	var parsed verboseResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "local", "parse whisper output", err)
	}

	subs := segmentsToSubtitles(parsed)
	if len(subs) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "local", "empty transcript", nil)
	}
	return subs, nil
}

func (l *Local) execute(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
