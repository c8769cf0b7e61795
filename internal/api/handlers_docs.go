package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/paperpal/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListPapers lists stored papers, newest first.
func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	papers, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.log.Error("list papers failed", "error", err)
		jsonError(w, "failed to list papers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"papers": papers})
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "paper not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("get paper failed", "error", err)
		jsonError(w, "failed to load paper", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleDeletePaper deletes a paper and its sections.
func (s *Server) handleDeletePaper(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "paper not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete paper failed", "doc_id", id, "error", err)
		jsonError(w, "failed to delete paper", http.StatusInternalServerError)
		return
	}
	s.log.Info("paper deleted", "doc_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": id, "deleted": true})
}

// handleDeleteAllPapers empties the store.
func (s *Server) handleDeleteAllPapers(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.DeleteAll(r.Context())
	if err != nil {
		s.log.Error("delete all papers failed", "error", err)
		jsonError(w, "failed to delete papers", http.StatusInternalServerError)
		return
	}
	s.log.Info("papers deleted", "count", n)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}
