package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/paperpal/internal/parser"
	"github.com/dgallion1/paperpal/internal/pipeline"
	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/go-chi/chi/v5"
)

// sectionOut is a section as the upload endpoint returns it.
type sectionOut struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type uploadResponse struct {
	DocID       string       `json:"doc_id"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	NumSections int          `json:"num_sections"`
	CharCount   int          `json:"char_count"`
	Sections    []sectionOut `json:"sections"`
	PaperTitle  string       `json:"paper_title"`
}

func (s *Server) parserOptions() parser.Options {
	return parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext}
}

// readUpload validates and reads one multipart file. The returned status is
// meaningful only when err is non-nil.
func (s *Server) readUpload(fh *multipart.FileHeader) (pipeline.Upload, int, error) {
	filename := sanitizeFilename(fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if _, err := parser.ForUpload(contentType, filename, s.parserOptions()); err != nil {
		return pipeline.Upload{}, http.StatusBadRequest,
			fmt.Errorf("unsupported file type %q (%s)", contentType, filepath.Ext(filename))
	}

	f, err := fh.Open()
	if err != nil {
		return pipeline.Upload{}, http.StatusInternalServerError, errors.New("failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return pipeline.Upload{}, http.StatusInternalServerError, errors.New("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return pipeline.Upload{}, http.StatusRequestEntityTooLarge,
			fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	if len(data) == 0 {
		return pipeline.Upload{}, http.StatusBadRequest, errors.New("empty file")
	}
	return pipeline.Upload{Filename: filename, ContentType: contentType, Data: data}, 0, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}

	up, code, err := s.readUpload(files[0])
	if err != nil {
		jsonError(w, err.Error(), code)
		return
	}

	worker := s.orchestrator.Worker()
	a, err := worker.Analyze(up)
	if err != nil {
		if pipeline.IsClientError(err) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Warn("upload parse failed", "filename", up.Filename, "error", err)
		jsonError(w, "failed to parse document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	p, err := worker.Save(r.Context(), up, a)
	if err != nil {
		s.log.Error("upload store failed", "filename", up.Filename, "error", err)
		jsonError(w, "failed to store paper", http.StatusInternalServerError)
		return
	}

	out := make([]sectionOut, 0, len(a.Sections))
	for _, sec := range a.Sections {
		out = append(out, sectionOut{Title: sec.Title, Content: sec.Content})
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		DocID:       p.ID,
		Filename:    p.Filename,
		ContentType: p.ContentType,
		SizeBytes:   p.SizeBytes,
		NumSections: p.NumSections,
		CharCount:   p.CharCount,
		Sections:    out,
		PaperTitle:  p.PaperTitle,
	})
}

// handleSegment analyzes a plain-text body without storing anything.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		formError(w, err)
		return
	}

	seg := s.seg
	if v := r.URL.Query().Get("keep_preamble"); v != "" {
		keep, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "keep_preamble must be a boolean", http.StatusBadRequest)
			return
		}
		p := seg.Policy()
		p.KeepPreamble = keep
		seg = sections.New(p)
	}

	writeJSON(w, http.StatusOK, seg.Analyze(string(body), s.textOptions()))
}

func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		formError(w, err)
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
		up, _, err := s.readUpload(fh)
		if err != nil {
			results = append(results, map[string]any{
				"filename": sanitizeFilename(fh.Filename),
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(up.Filename, up.ContentType, up.Data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": up.Filename,
				"job_id":   job.ID,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": up.Filename,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/v1/jobs/%s", job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, fmt.Sprintf("request exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
}

func sanitizeFilename(name string) string {
	// Keep only the base name.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
