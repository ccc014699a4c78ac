package server

import (
	"encoding/json"
	"net/http"
	"time"

	"captiond/internal/artifacts"
	"captiond/internal/jobs"
	"captiond/internal/subtitle"
)

// Error codes returned in the structured error envelope.
const (
	CodeUploadInProgress = "UPLOAD_IN_PROGRESS"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNoFile           = "NO_FILE"
	CodeEmptyFile        = "EMPTY_FILE"
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidFileType  = "INVALID_FILE_TYPE"
	CodeFileNotSaved     = "FILE_NOT_SAVED"
	CodeProcessingError  = "PROCESSING_ERROR"
	CodeJobNotFound      = "JOB_NOT_FOUND"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeFileNotFound     = "FILE_NOT_FOUND"
)

// ErrorResponse is the structured error envelope.
type ErrorResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Code        string `json:"code"`
	JobID       string `json:"jobId,omitempty"`
	WaitSeconds int    `json:"waitSeconds,omitempty"`
}

// GenerateResponse is the synchronous submit result.
type GenerateResponse struct {
	Success   bool                `json:"success"`
	JobID     string              `json:"jobId"`
	Subtitles []subtitle.Subtitle `json:"subtitles"`
	Downloads Downloads           `json:"downloads"`
	Metadata  Metadata            `json:"metadata"`
}

// Downloads carries the per-format caption file routes.
type Downloads struct {
	SRT string `json:"srt"`
	VTT string `json:"vtt"`
}

// Metadata summarizes the processed upload.
type Metadata struct {
	SourceLanguage string  `json:"sourceLanguage"`
	TargetLanguage string  `json:"targetLanguage"`
	Duration       float64 `json:"duration"`
	SegmentCount   int     `json:"segmentCount"`
	FileSize       int64   `json:"fileSize"`
	OriginalName   string  `json:"originalName"`
}

// StatusResponse is the poll result for one job.
type StatusResponse struct {
	Success   bool      `json:"success"`
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	StartTime time.Time `json:"startTime"`
}

// ActiveResponse lists in-flight jobs, admission counters, and the newest
// ledger entries.
type ActiveResponse struct {
	Success      bool                 `json:"success"`
	ActiveJobs   []jobs.Job           `json:"activeJobs"`
	TotalActive  int                  `json:"totalActive"`
	TotalHistory int                  `json:"totalHistory"`
	Recent       []artifacts.Artifact `json:"recent,omitempty"`
}

// HealthResponse reports dependency availability.
type HealthResponse struct {
	Status             string `json:"status"`
	FFmpegAvailable    bool   `json:"ffmpegAvailable"`
	FFprobeAvailable   bool   `json:"ffprobeAvailable"`
	ProviderConfigured bool   `json:"providerConfigured"`
	Timestamp          string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, code, jobID string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, JobID: jobID})
}
