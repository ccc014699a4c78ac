package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captiond/internal/artifacts"
	"captiond/internal/config"
	"captiond/internal/filter"
	"captiond/internal/jobs"
	"captiond/internal/logging"
	"captiond/internal/media/ffprobe"
	"captiond/internal/subtitle"
	"captiond/internal/testsupport"
	"captiond/internal/transcribe"
)

type stubExtractor struct {
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(audioPath, []byte("pcm"), 0o644)
}

type stubTranscriber struct {
	result   transcribe.Result
	err      error
	gotHint  string
	gotSecs  float64
	gotAudio string
}

func (s *stubTranscriber) Run(ctx context.Context, audioPath, languageCode string, totalSeconds float64, workDir string) (transcribe.Result, error) {
	s.gotHint = languageCode
	s.gotSecs = totalSeconds
	s.gotAudio = audioPath
	return s.result, s.err
}

type stubTranslator struct {
	err    error
	calls  int
	suffix string
}

func (s *stubTranslator) Translate(ctx context.Context, subs []subtitle.Subtitle, sourceLang, targetLang string, contentType filter.ContentType) ([]subtitle.Subtitle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]subtitle.Subtitle, len(subs))
	copy(out, subs)
	for i := range out {
		out[i].Text += s.suffix
	}
	return out, nil
}

func stubProbe(seconds string) ProbeFunc {
	return func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: seconds, Size: "4096"}}, nil
	}
}

func cues(texts ...string) []subtitle.Subtitle {
	out := make([]subtitle.Subtitle, len(texts))
	for i, text := range texts {
		out[i] = subtitle.Subtitle{
			Index: i + 1,
			Start: float64(i) * 2,
			End:   float64(i)*2 + 1.5,
			Text:  text,
		}
	}
	return out
}

type fixture struct {
	cfg        *config.Config
	pipeline   *Pipeline
	jobs       *jobs.Store
	artifacts  *artifacts.Store
	extractor  *stubExtractor
	transcribe *stubTranscriber
	translator *stubTranslator
}

func newFixture(t *testing.T, result transcribe.Result) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenArtifacts(t)
	jobStore := jobs.NewStore(logging.NewNop())
	extractor := &stubExtractor{}
	transcriber := &stubTranscriber{result: result}
	translator := &stubTranslator{suffix: " (translated)"}
	p := New(cfg, Deps{
		Extractor:   extractor,
		Probe:       stubProbe("42.5"),
		Transcriber: transcriber,
		Filter:      filter.New(cfg.Filter, logging.NewNop()),
		Translator:  translator,
		Jobs:        jobStore,
		Artifacts:   store,
	}, logging.NewNop())
	return &fixture{
		cfg:        cfg,
		pipeline:   p,
		jobs:       jobStore,
		artifacts:  store,
		extractor:  extractor,
		transcribe: transcriber,
		translator: translator,
	}
}

func newRequest(t *testing.T, fx *fixture, source, target string) Request {
	t.Helper()
	videoPath := filepath.Join(fx.cfg.UploadDir, "stored.mp4")
	testsupport.WriteFile(t, videoPath, 64)
	return Request{
		JobID:          "job-1",
		VideoPath:      videoPath,
		OriginalName:   "movie.mp4",
		SourceLanguage: source,
		TargetLanguage: target,
	}
}

func TestRunCompletesJobAndRecordsArtifacts(t *testing.T) {
	fx := newFixture(t, transcribe.Result{Subtitles: cues("hello there", "how are you")})
	req := newRequest(t, fx, "en", "zh")

	outcome, err := fx.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.SegmentCount != 2 {
		t.Fatalf("expected 2 segments, got %d", outcome.SegmentCount)
	}
	if !outcome.Translated {
		t.Fatal("expected translation to run")
	}

	job, ok := fx.jobs.Get("job-1")
	if !ok {
		t.Fatal("job missing")
	}
	if job.Status != jobs.StatusCompleted || job.Progress != jobs.ProgressDone {
		t.Fatalf("unexpected job state %+v", job)
	}

	srt, err := os.ReadFile(outcome.SRTPath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(srt), "hello there (translated)") {
		t.Fatalf("translated text missing from srt: %s", srt)
	}

	for _, format := range []string{subtitle.FormatSRT, subtitle.FormatVTT} {
		artifact, err := fx.artifacts.Lookup(context.Background(), "job-1", format)
		if err != nil {
			t.Fatalf("lookup %s: %v", format, err)
		}
		if artifact.SegmentCount != 2 || artifact.OriginalName != "movie.mp4" {
			t.Fatalf("unexpected artifact %+v", artifact)
		}
	}
}

func TestRunSkipsTranslationForSameLanguage(t *testing.T) {
	fx := newFixture(t, transcribe.Result{Subtitles: cues("bonjour")})
	req := newRequest(t, fx, "fr", "fr")

	outcome, err := fx.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Translated || fx.translator.calls != 0 {
		t.Fatal("translation should be skipped")
	}
	if fx.transcribe.gotHint != "fr" {
		t.Fatalf("expected fr hint, got %q", fx.transcribe.gotHint)
	}
}

func TestRunAutoDetectOmitsHintAndTranslation(t *testing.T) {
	fx := newFixture(t, transcribe.Result{Subtitles: cues("hola")})
	req := newRequest(t, fx, "auto", "en")

	outcome, err := fx.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fx.transcribe.gotHint != "" {
		t.Fatalf("auto detection should omit the hint, got %q", fx.transcribe.gotHint)
	}
	if outcome.Translated || fx.translator.calls != 0 {
		t.Fatal("auto detection disables translation")
	}
}

func TestRunPassesProbedDuration(t *testing.T) {
	fx := newFixture(t, transcribe.Result{Subtitles: cues("ok")})
	req := newRequest(t, fx, "en", "en")

	if _, err := fx.pipeline.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fx.transcribe.gotSecs != 42.5 {
		t.Fatalf("expected probed duration 42.5, got %v", fx.transcribe.gotSecs)
	}
}

func TestRunSyntheticSkipsFilter(t *testing.T) {
	// Placeholder cues would otherwise be dropped as bracketed noise.
	synthetic := cues("[Music playing]", "[Music playing]")
	fx := newFixture(t, transcribe.Result{Subtitles: synthetic, Synthetic: true})
	req := newRequest(t, fx, "en", "en")

	outcome, err := fx.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.SegmentCount != 2 {
		t.Fatalf("synthetic cues should survive, got %d", outcome.SegmentCount)
	}
	if outcome.Stats.Removed() != 0 {
		t.Fatalf("no removals expected, got %d", outcome.Stats.Removed())
	}
}

func TestRunFailureMarksJobFailedAndCleansUp(t *testing.T) {
	fx := newFixture(t, transcribe.Result{})
	fx.transcribe.err = errors.New("provider unreachable")
	req := newRequest(t, fx, "en", "zh")

	if _, err := fx.pipeline.Run(context.Background(), req); err == nil {
		t.Fatal("expected pipeline error")
	}

	job, ok := fx.jobs.Get("job-1")
	if !ok {
		t.Fatal("job missing")
	}
	if job.Status != jobs.StatusFailed || job.Progress != 0 {
		t.Fatalf("unexpected job state %+v", job)
	}
	if _, err := os.Stat(req.VideoPath); !os.IsNotExist(err) {
		t.Fatal("upload should be removed on failure")
	}
}

func TestRunExtractorFailure(t *testing.T) {
	fx := newFixture(t, transcribe.Result{Subtitles: cues("x")})
	fx.extractor.err = errors.New("no audio stream")
	req := newRequest(t, fx, "en", "en")

	if _, err := fx.pipeline.Run(context.Background(), req); err == nil {
		t.Fatal("expected extraction error")
	}
	job, _ := fx.jobs.Get("job-1")
	if job.Status != jobs.StatusFailed {
		t.Fatalf("expected failed status, got %s", job.Status)
	}
}

func TestRunTranslationFailureFailsJob(t *testing.T) {
	fx := newFixture(t, transcribe.Result{Subtitles: cues("hello")})
	fx.translator.err = errors.New("context canceled")
	req := newRequest(t, fx, "en", "zh")

	if _, err := fx.pipeline.Run(context.Background(), req); err == nil {
		t.Fatal("expected translation error")
	}
	job, _ := fx.jobs.Get("job-1")
	if job.Status != jobs.StatusFailed {
		t.Fatalf("expected failed status, got %s", job.Status)
	}
}

func TestRunRemovesIntermediateFiles(t *testing.T) {
	fx := newFixture(t, transcribe.Result{Subtitles: cues("done")})
	req := newRequest(t, fx, "en", "en")

	if _, err := fx.pipeline.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(req.VideoPath); !os.IsNotExist(err) {
		t.Fatal("upload should be removed after success")
	}
	audioPath := filepath.Join(fx.cfg.TempDir, "job-1.wav")
	if _, err := os.Stat(audioPath); !os.IsNotExist(err) {
		t.Fatal("extracted audio should be removed")
	}
	if _, err := os.Stat(filepath.Join(fx.cfg.TempDir, "job-1_segments")); !os.IsNotExist(err) {
		t.Fatal("segment directory should be removed")
	}
}
