package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docusum/internal/doctree"
	"github.com/dgallion1/docusum/internal/parser"
	"github.com/dgallion1/docusum/internal/pipeline"
)

// uploadResponse is the synchronous upload contract.
type uploadResponse struct {
	Success      bool              `json:"success"`
	DocumentID   string            `json:"document_id"`
	File         string            `json:"file"`
	Sections     []doctree.Section `json:"sections"`
	DownloadDOCX string            `json:"download_docx"`
	DownloadPDF  string            `json:"download_pdf"`
}

// handleUpload summarizes an uploaded PDF on the request goroutine and
// returns the per-chapter summaries with download links.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(filename, data)
	res, err := s.pipeline.Run(r.Context(), job)
	if err != nil {
		var pe *pipeline.PhaseError
		if errors.As(err, &pe) && pe.Phase == pipeline.StatusExporting {
			jsonError(w, "export failed: "+pe.Err.Error(), http.StatusInternalServerError)
			return
		}
		if errors.As(err, &pe) {
			err = pe.Err
		}
		jsonError(w, "summarization failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:      true,
		DocumentID:   res.DocumentID,
		File:         filename,
		Sections:     res.Sections,
		DownloadDOCX: downloadURL(res.Artifacts.DOCX),
		DownloadPDF:  downloadURL(res.Artifacts.PDF),
	})
}

// handleSubmit queues an uploaded PDF and returns a job handle to poll.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(filename, data)
	if err := s.pipeline.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      job.ID,
		"document_id": job.DocID,
		"status":      pipeline.StatusQueued,
		"poll_url":    fmt.Sprintf("/api/summaries/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.pipeline.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	body := map[string]any{
		"job_id":      snap.ID,
		"document_id": snap.DocID,
		"status":      snap.Status,
		"phase":       snap.Phase,
		"progress":    snap.Progress,
		"chapters":    snap.Chapters,
	}
	if snap.Result != nil {
		body["sections"] = snap.Result.Sections
		body["download_docx"] = downloadURL(snap.Result.Artifacts.DOCX)
		body["download_pdf"] = downloadURL(snap.Result.Artifacts.PDF)
	}
	writeJSON(w, http.StatusOK, body)
}

// handleDownload serves an exported artifact from the output directory.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != sanitizeFilename(name) {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	f, err := os.Open(filepath.Join(s.pipeline.OutputDir(), name))
	if err != nil {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}

	switch {
	case strings.HasSuffix(name, ".docx"):
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	case strings.HasSuffix(name, ".pdf"):
		w.Header().Set("Content-Type", "application/pdf")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// readUpload validates the multipart "file" field. On failure the error
// response has been written and ok is false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (filename string, data []byte, ok bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return "", nil, false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename = sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, "only PDF files are allowed", http.StatusBadRequest)
		return "", nil, false
	}

	data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	if !parser.IsPDF(data) {
		jsonError(w, "only PDF files are allowed", http.StatusBadRequest)
		return "", nil, false
	}
	return filename, data, true
}

func downloadURL(name string) string {
	if name == "" {
		return ""
	}
	return "/api/download/" + name
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
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
