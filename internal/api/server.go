package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/paperpal/internal/config"
	"github.com/dgallion1/paperpal/internal/pipeline"
	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/dgallion1/paperpal/internal/store"
	"github.com/dgallion1/paperpal/internal/textnorm"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API server for paperpal.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	seg          *sections.Segmenter
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, st *store.Store, seg *sections.Segmenter, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        st,
		seg:          seg,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public endpoints.
	r.Get("/", s.handleRoot)
	r.Get("/api/v1/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Route("/api/v1/papers", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)
			r.Post("/segment", s.handleSegment)
			r.Post("/batch", s.handleBatchUpload)
			r.Get("/", s.handleListPapers)
			r.Delete("/", s.handleDeleteAllPapers)
			r.Get("/{id}", s.handleGetPaper)
			r.Delete("/{id}", s.handleDeletePaper)
		})
		r.Get("/api/v1/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/v1/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) textOptions() textnorm.Options {
	return textnorm.Options{FoldUnicode: s.cfg.FoldUnicode}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
