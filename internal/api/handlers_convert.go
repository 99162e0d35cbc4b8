package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/dgallion1/mdstruct/internal/convert"
)

// handleConvert converts one document synchronously and returns its tree.
// The body is either raw Markdown or a multipart form with a "file" field.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	flat, _ := strconv.ParseBool(r.URL.Query().Get("flat"))

	up := upload{Filename: "input.md"}
	if name := r.URL.Query().Get("filename"); name != "" {
		up.Filename = sanitizeFilename(name)
	}

	var data []byte
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
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
		up.Filename = sanitizeFilename(header.Filename)

		if err := up.Validate(); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		var status int
		if data, status, err = s.readUpload(file); err != nil {
			jsonError(w, err.Error(), status)
			return
		}
	} else {
		if err := up.Validate(); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		var status int
		var err error
		if data, status, err = s.readUpload(r.Body); err != nil {
			jsonError(w, err.Error(), status)
			return
		}
	}

	doc, err := s.orchestrator.Convert(up.Filename, data, flat)
	if err != nil {
		var tagErr *convert.UnsupportedTagError
		if errors.As(err, &tagErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{
				"error": err.Error(),
				"tag":   tagErr.Tag,
			})
			return
		}
		s.log.Warn("convert failed", "filename", up.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
