package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"captiond/internal/jobs"
	"captiond/internal/subtitle"
)

// handleProgress streams job state as server-sent events until the job
// reaches a terminal status or the client goes away. A missing job emits a
// single not_found event and closes.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", CodeProcessingError, jobID)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	send := func() bool {
		job, ok := s.deps.Jobs.Get(jobID)
		if !ok {
			job = jobs.Job{ID: jobID, Status: jobs.StatusNotFound, Message: "job not found"}
		}
		payload, err := json.Marshal(job)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return ok && !job.Status.Terminal()
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(s.sseInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	format := chi.URLParam(r, "format")

	if !subtitle.SupportedFormat(format) {
		writeError(w, http.StatusBadRequest, "unsupported subtitle format", CodeInvalidFormat, jobID)
		return
	}
	artifact, err := s.deps.Artifacts.Lookup(r.Context(), jobID, format)
	if err != nil {
		writeError(w, http.StatusNotFound, "subtitle file not found", CodeFileNotFound, jobID)
		return
	}
	if _, err := os.Stat(artifact.Path); err != nil {
		writeError(w, http.StatusNotFound, "subtitle file not found", CodeFileNotFound, jobID)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", jobID+"_subtitles."+format))
	http.ServeFile(w, r, artifact.Path)
}
