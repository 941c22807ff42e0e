package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/jobs"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/reaper"
)

// ConversionResponse is the body for convert acceptance and completion.
type ConversionResponse struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	OutputFile string `json:"output_file,omitempty"`
	Message    string `json:"message,omitempty"`
}

// FormatInfo describes one supported format token.
type FormatInfo struct {
	Token       string `json:"token"`
	Description string `json:"description"`
}

// FormatsResponse lists supported input and output formats.
type FormatsResponse struct {
	InputFormats  []FormatInfo `json:"input_formats"`
	OutputFormats []FormatInfo `json:"output_formats"`
}

// HealthResponse is the body for the health endpoint.
type HealthResponse struct {
	Status          string       `json:"status"`
	Version         string       `json:"version"`
	Timestamp       time.Time    `json:"timestamp"`
	KernelAvailable bool         `json:"kernel_available"`
	TrackedJobs     int          `json:"tracked_jobs"`
	Reaper          reaper.Stats `json:"reaper"`
}

// StatusResponse wraps a job record for the status endpoint.
type StatusResponse struct {
	jobs.Job
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write response", logfields.Error(err))
	}
}

// writeError maps a conversion error to an HTTP status by category and
// writes the uniform error body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), ErrorResponse{
		Error:    err.Error(),
		Category: string(meshErrors.CategoryOf(err)),
	})
}

func statusForError(err error) int {
	switch meshErrors.CategoryOf(err) {
	case meshErrors.CategoryInput:
		return http.StatusNotFound
	case meshErrors.CategoryFormat:
		return http.StatusBadRequest
	case meshErrors.CategoryKernel, meshErrors.CategoryMesh:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:    message,
		Category: string(meshErrors.CategoryInput),
	})
}
