package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/mdstruct/internal/parser"
	"github.com/dgallion1/mdstruct/internal/pipeline"
)

// upload is one submitted file after form decoding.
type upload struct {
	Filename string
	Title    string
}

func (u upload) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Filename, validation.Required, validation.By(func(value any) error {
			name := value.(string)
			if !parser.IsSupportedExtension(name) {
				return validation.NewError("upload.unsupported_type", fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)))
			}
			return nil
		})),
		validation.Field(&u.Title, validation.Length(0, 300)),
	)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	up := upload{Filename: sanitizeFilename(header.Filename), Title: strings.TrimSpace(r.FormValue("title"))}
	if err := up.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, status, err := s.readUpload(file)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	job := pipeline.NewJob(up.Filename, up.Title, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(jobAccepted(job))
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		up := upload{Filename: sanitizeFilename(fh.Filename)}
		if err := up.Validate(); err != nil {
			results = append(results, map[string]any{
				"filename": up.Filename,
				"error":    err.Error(),
			})
			continue
		}

		data, err := s.readFileHeader(fh)
		if err != nil {
			results = append(results, map[string]any{
				"filename": up.Filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(up.Filename, "", data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": up.Filename,
				"error":    err.Error(),
			})
			continue
		}

		entry := jobAccepted(job)
		entry["filename"] = up.Filename
		results = append(results, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

// readUpload reads at most MaxUploadBytes and reports the HTTP status to use
// on failure.
func (s *Server) readUpload(r io.Reader) ([]byte, int, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return data, http.StatusOK, nil
}

func (s *Server) readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file")
	}
	defer f.Close()
	data, _, err := s.readUpload(f)
	return data, err
}

func jobAccepted(job *pipeline.Job) map[string]any {
	return map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
