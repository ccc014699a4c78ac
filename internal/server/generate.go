package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"captiond/internal/admission"
	"captiond/internal/fileutil"
	"captiond/internal/logging"
	"captiond/internal/pipeline"
)

// formFieldOverhead pads the body limit so a file just under the cap is
// not rejected because of multipart framing.
const formFieldOverhead = 1 << 20

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	clientKey := admission.ClientKey(r.RemoteAddr, r.Header.Get("User-Agent"))

	jobID, err := s.deps.Admission.Admit(clientKey)
	if err != nil {
		var dup *admission.DuplicateError
		if errors.As(err, &dup) {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error: "an upload is already in progress for this client",
				Code:  CodeUploadInProgress,
				JobID: dup.JobID,
			})
			return
		}
		var limited *admission.RateLimitedError
		if errors.As(err, &limited) {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:       fmt.Sprintf("upload too frequent, wait %d second(s)", limited.WaitSeconds),
				Code:        CodeRateLimited,
				WaitSeconds: limited.WaitSeconds,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "admission failed", CodeProcessingError, "")
		return
	}
	defer s.deps.Admission.Release(clientKey)

	maxBytes := s.cfg.Upload.MaxFileBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formFieldOverhead)

	file, header, err := r.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit", CodeFileTooLarge, jobID)
			return
		}
		writeError(w, http.StatusBadRequest, "no video file provided", CodeNoFile, jobID)
		return
	}
	defer file.Close()

	originalName := fileutil.SanitizeBaseName(header.Filename)
	if !fileutil.AllowedVideoExtension(originalName) {
		writeError(w, http.StatusBadRequest, "unsupported file type", CodeInvalidFileType, jobID)
		return
	}

	storedPath := filepath.Join(s.cfg.UploadDir, fileutil.StoredName(originalName))
	size, err := fileutil.SaveStream(storedPath, file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit", CodeFileTooLarge, jobID)
			return
		}
		s.logger.Error("upload save failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save the uploaded file", CodeFileNotSaved, jobID)
		return
	}
	if size == 0 {
		fileutil.RemoveQuietly(storedPath)
		writeError(w, http.StatusBadRequest, "uploaded file is empty", CodeEmptyFile, jobID)
		return
	}
	if size > maxBytes {
		fileutil.RemoveQuietly(storedPath)
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit", CodeFileTooLarge, jobID)
		return
	}

	sourceLanguage := r.FormValue("sourceLanguage")
	targetLanguage := r.FormValue("targetLanguage")

	// The job must run to completion even if the client disconnects;
	// progress remains observable through the status and SSE endpoints.
	outcome, err := s.deps.Pipeline.Run(context.WithoutCancel(r.Context()), pipeline.Request{
		JobID:          jobID,
		VideoPath:      storedPath,
		OriginalName:   originalName,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "subtitle generation failed", CodeProcessingError, jobID)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Success:   true,
		JobID:     jobID,
		Subtitles: outcome.Subtitles,
		Downloads: Downloads{
			SRT: fmt.Sprintf("/api/subtitles/download/%s/srt", jobID),
			VTT: fmt.Sprintf("/api/subtitles/download/%s/vtt", jobID),
		},
		Metadata: Metadata{
			SourceLanguage: sourceLanguage,
			TargetLanguage: targetLanguage,
			Duration:       outcome.DurationSeconds,
			SegmentCount:   outcome.SegmentCount,
			FileSize:       size,
			OriginalName:   originalName,
		},
	})
}
