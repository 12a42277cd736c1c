package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dgallion1/docusum/internal/config"
	"github.com/dgallion1/docusum/internal/doctree"
	"github.com/dgallion1/docusum/internal/llm"
	"github.com/dgallion1/docusum/internal/pipeline"
	"github.com/dgallion1/docusum/internal/store"
)

// Pipeline is the part of the orchestrator the HTTP layer drives.
type Pipeline interface {
	Run(ctx context.Context, job *pipeline.Job) (*doctree.Result, error)
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
	GateStats() pipeline.GateStats
	OutputDir() string
}

// Server is the HTTP API server for docusum.
type Server struct {
	router   chi.Router
	pipeline Pipeline
	client   llm.Client
	comments *store.Comments
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. client and comments may
// be nil; the endpoints that need them then answer 503.
func NewServer(p Pipeline, client llm.Client, comments *store.Comments, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		pipeline: p,
		client:   client,
		comments: comments,
		log:      log,
		cfg:      cfg,
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
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/api/download/{filename}", s.handleDownload)

	// Authenticated endpoints. Auth is skipped when no key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/summaries", s.handleSubmit)
		r.Get("/api/summaries/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Post("/api/comments", s.handleAddComment)
		r.Get("/api/comments", s.handleListComments)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
