// Package pipeline drives one upload from admitted video to rendered
// subtitle files: audio extraction, transcription, transcript cleanup,
// optional translation, and SRT/VTT output. Job state transitions and the
// artifact ledger writes happen here so every entry point observes the
// same lifecycle.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"captiond/internal/artifacts"
	"captiond/internal/config"
	"captiond/internal/filter"
	"captiond/internal/jobs"
	"captiond/internal/language"
	"captiond/internal/logging"
	"captiond/internal/media/ffprobe"
	"captiond/internal/subtitle"
	"captiond/internal/transcribe"
)

// Extractor pulls a mono 16 kHz audio track from a video file.
type Extractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) error
}

// Transcriber turns the extracted audio into timed cues.
type Transcriber interface {
	Run(ctx context.Context, audioPath, languageCode string, totalSeconds float64, workDir string) (transcribe.Result, error)
}

// Translator rewrites cue text into the target language in place,
// preserving timing.
type Translator interface {
	Translate(ctx context.Context, subs []subtitle.Subtitle, sourceLang, targetLang string, contentType filter.ContentType) ([]subtitle.Subtitle, error)
}

// Recorder persists generated file metadata.
type Recorder interface {
	Record(ctx context.Context, artifact artifacts.Artifact) error
}

// ProbeFunc inspects a media file. Injectable for tests.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Request carries one admitted upload into the pipeline.
type Request struct {
	JobID          string
	VideoPath      string
	OriginalName   string
	SourceLanguage string
	TargetLanguage string
}

// Outcome summarizes a completed run.
type Outcome struct {
	Subtitles       []subtitle.Subtitle
	SRTPath         string
	VTTPath         string
	SegmentCount    int
	DurationSeconds float64
	ContentType     filter.ContentType
	Stats           filter.Stats
	Synthetic       bool
	Translated      bool
}

// Deps bundles the stage implementations the pipeline coordinates.
type Deps struct {
	Extractor   Extractor
	Probe       ProbeFunc
	Transcriber Transcriber
	Filter      *filter.Filter
	Translator  Translator
	Jobs        *jobs.Store
	Artifacts   Recorder
}

// Pipeline runs uploads end to end.
type Pipeline struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

// New builds a Pipeline. The probe defaults to ffprobe with the
// configured binary when not supplied.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Pipeline {
	if deps.Probe == nil {
		deps.Probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, cfg.Media.FFprobeBinary, path)
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{cfg: cfg, deps: deps, logger: logging.WithComponent(logger, "pipeline")}
}

// Run executes the full pipeline for one request. The uploaded video and
// all intermediate audio are removed on both success and failure; the job
// record is marked completed or failed before Run returns.
func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	log := p.logger.With(logging.String(logging.FieldJobID, req.JobID))
	p.deps.Jobs.Create(req.JobID, req.OriginalName, req.SourceLanguage, req.TargetLanguage)

	audioPath := filepath.Join(p.cfg.TempDir, req.JobID+".wav")
	workDir := filepath.Join(p.cfg.TempDir, req.JobID+"_segments")
	defer func() {
		os.Remove(req.VideoPath)
		os.Remove(audioPath)
		os.RemoveAll(workDir)
	}()

	outcome, err := p.run(ctx, req, audioPath, workDir, log)
	if err != nil {
		log.Error("pipeline failed", logging.Error(err))
		p.deps.Jobs.Fail(req.JobID, err.Error())
		return Outcome{}, err
	}
	p.deps.Jobs.Complete(req.JobID, "subtitles ready")
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, audioPath, workDir string, log *slog.Logger) (Outcome, error) {
	// "auto" (or empty) defers language detection to the provider and
	// disables translation, since the source is unknown.
	rawSource := strings.ToLower(strings.TrimSpace(req.SourceLanguage))
	autoDetect := rawSource == "" || rawSource == "auto"
	sourceLang, hint := "auto", ""
	if !autoDetect {
		sourceLang = language.Normalize(req.SourceLanguage)
		hint = sourceLang
	}
	targetLang := language.Normalize(req.TargetLanguage)

	if err := p.deps.Extractor.Extract(ctx, req.VideoPath, audioPath); err != nil {
		return Outcome{}, fmt.Errorf("extract audio: %w", err)
	}
	probe, err := p.deps.Probe(ctx, audioPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("inspect audio: %w", err)
	}
	totalSeconds := probe.DurationSeconds()
	log.Info("audio extracted",
		logging.Float64("duration_seconds", totalSeconds),
		logging.Int64("bytes", probe.SizeBytes()))

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("create segment directory: %w", err)
	}
	p.deps.Jobs.Update(req.JobID, jobs.StatusTranscribing, jobs.ProgressTranscribing, "transcribing audio")

	result, err := p.deps.Transcriber.Run(ctx, audioPath, hint, totalSeconds, workDir)
	if err != nil {
		return Outcome{}, fmt.Errorf("transcribe: %w", err)
	}

	subs := result.Subtitles
	var stats filter.Stats
	analysis := filter.Analysis{Type: filter.ContentGeneral, Confidence: 0.5}
	if result.Synthetic {
		// Synthetic placeholder tracks are already clean and would be
		// gutted by the artifact heuristics.
		stats = filter.Stats{Total: len(subs)}
	} else {
		subs, stats, analysis = p.deps.Filter.Run(subs)
	}
	log.Info("transcript filtered",
		logging.Int("kept", len(subs)),
		logging.Int("removed", stats.Removed()),
		logging.String("content_type", string(analysis.Type)))

	translated := false
	if !autoDetect && targetLang != sourceLang {
		p.deps.Jobs.Update(req.JobID, jobs.StatusTranslating, jobs.ProgressTranslating, "translating transcript")
		subs, err = p.deps.Translator.Translate(ctx, subs, sourceLang, targetLang, analysis.Type)
		if err != nil {
			return Outcome{}, fmt.Errorf("translate: %w", err)
		}
		translated = true
	}

	p.deps.Jobs.Update(req.JobID, jobs.StatusFormatting, jobs.ProgressFormatting, "rendering subtitle files")
	srtPath, vttPath, err := p.render(req.JobID, subs)
	if err != nil {
		return Outcome{}, err
	}

	p.deps.Jobs.Update(req.JobID, jobs.StatusFormatting, jobs.ProgressFinalizing, "recording results")
	if err := p.record(ctx, req, srtPath, vttPath, len(subs), sourceLang, targetLang); err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Subtitles:       subs,
		SRTPath:         srtPath,
		VTTPath:         vttPath,
		SegmentCount:    len(subs),
		DurationSeconds: totalSeconds,
		ContentType:     analysis.Type,
		Stats:           stats,
		Synthetic:       result.Synthetic,
		Translated:      translated,
	}, nil
}

func (p *Pipeline) render(jobID string, subs []subtitle.Subtitle) (string, string, error) {
	srtPath := filepath.Join(p.cfg.DownloadDir, jobID+"_subtitles.srt")
	vttPath := filepath.Join(p.cfg.DownloadDir, jobID+"_subtitles.vtt")
	if err := os.WriteFile(srtPath, []byte(subtitle.RenderSRT(subs)), 0o644); err != nil {
		return "", "", fmt.Errorf("write srt: %w", err)
	}
	if err := os.WriteFile(vttPath, []byte(subtitle.RenderVTT(subs)), 0o644); err != nil {
		os.Remove(srtPath)
		return "", "", fmt.Errorf("write vtt: %w", err)
	}
	return srtPath, vttPath, nil
}

func (p *Pipeline) record(ctx context.Context, req Request, srtPath, vttPath string, segments int, sourceLang, targetLang string) error {
	for _, entry := range []struct {
		format string
		path   string
	}{
		{subtitle.FormatSRT, srtPath},
		{subtitle.FormatVTT, vttPath},
	} {
		info, err := os.Stat(entry.path)
		if err != nil {
			return fmt.Errorf("stat %s artifact: %w", entry.format, err)
		}
		artifact := artifacts.Artifact{
			JobID:          req.JobID,
			Format:         entry.format,
			Path:           entry.path,
			Bytes:          info.Size(),
			SegmentCount:   segments,
			SourceLanguage: sourceLang,
			TargetLanguage: targetLang,
			OriginalName:   req.OriginalName,
		}
		if err := p.deps.Artifacts.Record(ctx, artifact); err != nil {
			return fmt.Errorf("record %s artifact: %w", entry.format, err)
		}
	}
	return nil
}
