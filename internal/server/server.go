// Package server exposes the subtitle generation HTTP API: multipart job
// submission, status polling, SSE progress streaming, caption downloads,
// and health reporting. Handlers translate transport concerns into calls
// on the admission controller, the pipeline, and the stores; no pipeline
// logic lives here.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"captiond/internal/admission"
	"captiond/internal/artifacts"
	"captiond/internal/config"
	"captiond/internal/jobs"
	"captiond/internal/logging"
	"captiond/internal/pipeline"
)

// Runner executes the subtitle pipeline for an admitted upload.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error)
}

// Ledger resolves generated caption files for download.
type Ledger interface {
	Lookup(ctx context.Context, jobID, format string) (artifacts.Artifact, error)
	ListRecent(ctx context.Context, limit int) ([]artifacts.Artifact, error)
}

// Deps bundles the collaborators the server dispatches to.
type Deps struct {
	Admission *admission.Controller
	Jobs      *jobs.Store
	Pipeline  Runner
	Artifacts Ledger
}

// Server hosts the public API.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	router *chi.Mux

	listener net.Listener
	server   *http.Server

	sseInterval time.Duration
	lookPath    func(name string) (string, error)
}

// Option customizes a Server.
type Option func(*Server)

// WithSSEInterval overrides the progress push cadence, for tests.
func WithSSEInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.sseInterval = d
		}
	}
}

// WithLookPath overrides binary discovery for health checks, for tests.
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(s *Server) {
		if lookPath != nil {
			s.lookPath = lookPath
		}
	}
}

// New assembles the router and handlers.
func New(cfg *config.Config, deps Deps, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		deps:        deps,
		logger:      logging.WithComponent(logger, "api"),
		router:      chi.NewRouter(),
		sseInterval: 2 * time.Second,
		lookPath:    exec.LookPath,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Route("/subtitles", func(r chi.Router) {
			r.Post("/generate", s.handleGenerate)
			r.Get("/status/{jobID}", s.handleStatus)
			r.Get("/progress/{jobID}", s.handleProgress)
			r.Get("/download/{jobID}/{format}", s.handleDownload)
			r.Get("/active", s.handleActive)
		})
	})

	return s
}

// Router returns the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start binds the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.APIBind)
	if bind == "" {
		return errors.New("api bind address not configured")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	// A shut-down http.Server cannot serve again, so build a fresh one
	// per Start.
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srv := s.server
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, ffmpegErr := s.lookPath(s.cfg.Media.FFmpegBinary)
	_, ffprobeErr := s.lookPath(s.cfg.Media.FFprobeBinary)
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:             "ok",
		FFmpegAvailable:    ffmpegErr == nil,
		FFprobeAvailable:   ffprobeErr == nil,
		ProviderConfigured: strings.TrimSpace(s.cfg.Provider.APIKey) != "",
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	recent, err := s.deps.Artifacts.ListRecent(r.Context(), 10)
	if err != nil {
		s.logger.Warn("list recent artifacts", logging.Error(err))
	}
	writeJSON(w, http.StatusOK, ActiveResponse{
		Success:      true,
		ActiveJobs:   s.deps.Jobs.Active(),
		TotalActive:  s.deps.Admission.InFlight(),
		TotalHistory: s.deps.Admission.HistoryCount(),
		Recent:       recent,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := s.deps.Jobs.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found", CodeJobNotFound, jobID)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Success:   true,
		JobID:     jobID,
		Status:    string(job.Status),
		Progress:  job.Progress,
		Message:   job.Message,
		StartTime: job.CreatedAt,
	})
}
