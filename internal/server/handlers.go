package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/meshforge/internal/config"
	meshErrors "git.home.luguber.info/inful/meshforge/internal/errors"
	"git.home.luguber.info/inful/meshforge/internal/jobs"
	"git.home.luguber.info/inful/meshforge/internal/logfields"
	"git.home.luguber.info/inful/meshforge/internal/pipeline"
	"git.home.luguber.info/inful/meshforge/internal/version"
)

// multipartMemoryLimit caps the in-memory portion of multipart parsing;
// larger uploads spill to temp files.
const multipartMemoryLimit = 32 << 20

var inputFormatDescriptions = map[string]string{
	"step": "STEP CAD part or assembly (ISO 10303-21)",
	"stp":  "STEP CAD part or assembly (ISO 10303-21)",
	"iges": "IGES CAD exchange file",
	"igs":  "IGES CAD exchange file",
	"stl":  "Stereolithography triangle mesh (ASCII or binary)",
}

var outputFormatDescriptions = map[string]string{
	"stl":        "STL triangle mesh, binary by default",
	"stl_ascii":  "STL triangle mesh, ASCII encoding",
	"stl_binary": "STL triangle mesh, binary encoding",
	"obj":        "Wavefront OBJ with optional material file",
	"gltf":       "glTF 2.0 JSON with external binary buffer",
	"glb":        "Binary glTF 2.0 single-file container",
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		badRequest(w, "invalid multipart upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file field")
		return
	}
	defer file.Close()

	outputFormat := r.FormValue("output_format")
	if outputFormat == "" {
		badRequest(w, "missing output_format field")
		return
	}

	quality := r.FormValue("quality")
	deflection, angularDeflection := resolveTolerances(quality,
		parseFloatField(r.FormValue("deflection")),
		parseFloatField(r.FormValue("angular_deflection")),
		s.cfg.Geometry)

	req := pipeline.Request{
		OutputFormat:      outputFormat,
		Quality:           quality,
		Deflection:        deflection,
		AngularDeflection: angularDeflection,
	}

	jobID := uuid.NewString()
	uploadPath := filepath.Join(s.cfg.Storage.UploadDir, jobID+"_"+filepath.Base(header.Filename))
	if err := saveUpload(file, uploadPath); err != nil {
		writeError(w, meshErrors.FileSystemError("save upload", err))
		return
	}
	req.InputPath = uploadPath

	slog.Info("Upload received",
		logfields.JobID(jobID),
		logfields.Path(uploadPath),
		logfields.SizeBytes(header.Size),
		logfields.Format(outputFormat))

	if r.FormValue("async") == "true" {
		// Fire and forget: the tracker captures every failure into job
		// state, so acceptance always succeeds.
		s.tracker.SubmitAsync(context.Background(), jobID, uploadPath, func(ctx context.Context) (string, error) {
			return s.pipeline.Convert(ctx, req)
		})
		writeJSON(w, http.StatusAccepted, ConversionResponse{
			JobID:   jobID,
			Status:  string(jobs.StatusPending),
			Message: "conversion accepted, poll status for completion",
		})
		return
	}

	outputFile, err := s.pipeline.Convert(r.Context(), req)
	if err != nil {
		// Degraded mode: only a missing kernel is eligible for the
		// placeholder fallback. Content failures always surface.
		if s.kernel == nil && s.cfg.Geometry.AllowPlaceholder &&
			meshErrors.HasCategory(err, meshErrors.CategoryKernel) {
			outputFile, err = s.pipeline.ExportPlaceholder(req)
			if err == nil {
				writeJSON(w, http.StatusOK, ConversionResponse{
					JobID:      jobID,
					Status:     string(jobs.StatusCompleted),
					OutputFile: outputFile,
					Message:    "geometry kernel unavailable, placeholder geometry exported",
				})
				return
			}
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ConversionResponse{
		JobID:      jobID,
		Status:     string(jobs.StatusCompleted),
		OutputFile: outputFile,
		Message:    "conversion completed",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, ok := s.tracker.Get(jobID)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:    "job not found: " + jobID,
			Category: string(meshErrors.CategoryInput),
		})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Job: job})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, ok := s.tracker.Get(jobID)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:    "job not found: " + jobID,
			Category: string(meshErrors.CategoryInput),
		})
		return
	}

	switch job.Status {
	case jobs.StatusCompleted:
		// Fall through to serve the file.
	case jobs.StatusFailed:
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "job failed: " + job.Message,
			Category: string(meshErrors.CategoryInternal),
		})
		return
	default:
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "conversion not finished",
			Category: string(meshErrors.CategoryInput),
		})
		return
	}

	if _, err := os.Stat(job.OutputFile); err != nil {
		// The reaper already collected the file.
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:    "output file expired and was removed",
			Category: string(meshErrors.CategoryInput),
		})
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(job.OutputFile)+"\"")
	http.ServeFile(w, r, job.OutputFile)
}

func (s *Server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	registry := s.pipeline.Registry()

	resp := FormatsResponse{}
	for _, token := range registry.InputFormats() {
		resp.InputFormats = append(resp.InputFormats, FormatInfo{
			Token:       token,
			Description: inputFormatDescriptions[token],
		})
	}
	for _, token := range registry.OutputFormats() {
		resp.OutputFormats = append(resp.OutputFormats, FormatInfo{
			Token:       token,
			Description: outputFormatDescriptions[token],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "healthy",
		Version:         version.Version,
		Timestamp:       time.Now().UTC(),
		KernelAvailable: s.kernel != nil,
		TrackedJobs:     s.tracker.Len(),
		Reaper:          s.reaper.Stats(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": version.Name,
		"version": version.Version,
		"convert": "POST /api/v1/convert",
		"status":  "GET /api/v1/status/{id}",
		"formats": "GET /api/v1/formats",
		"health":  "GET /api/v1/health",
	})
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}

// resolveTolerances fills the configured geometry defaults into absent
// tolerance fields when no quality preset was named. With a preset the
// fields pass through untouched so the preset table governs.
func resolveTolerances(quality string, deflection, angularDeflection float64, geo config.GeometryConfig) (float64, float64) {
	if quality != "" {
		return deflection, angularDeflection
	}
	if deflection <= 0 {
		deflection = geo.DefaultDeflection
	}
	if angularDeflection <= 0 {
		angularDeflection = geo.DefaultAngularDeflection
	}
	return deflection, angularDeflection
}

// parseFloatField returns 0 for empty or malformed values; zero means
// "unset" in quality resolution.
func parseFloatField(v string) float64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
