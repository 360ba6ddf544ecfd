package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/studyforge/syllabd/internal/catalog"
	"github.com/studyforge/syllabd/internal/config"
	"github.com/studyforge/syllabd/internal/llm"
	"github.com/studyforge/syllabd/internal/pipeline"
	"github.com/studyforge/syllabd/internal/store"
	"github.com/studyforge/syllabd/internal/tutor"
)

// Server is the HTTP API server for syllabd.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	llm          *llm.Client
	catalog      *catalog.Catalog
	sessions     *tutor.SessionStore
	log          *slog.Logger
	cfg          *config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, st *store.Store, client *llm.Client, cat *catalog.Catalog, sessions *tutor.SessionStore, log *slog.Logger, cfg *config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        st,
		llm:          client,
		catalog:      cat,
		sessions:     sessions,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Get("/api/subjects", s.handleListSubjects)
		r.Get("/api/chapters", s.handleListChapters)
		r.Get("/api/chapters/{chapterID}/topics", s.handleListTopics)

		r.Post("/api/quick-help", s.handleQuickHelp)
		r.Post("/api/problems", s.handleProblems)
		r.Post("/api/quiz", s.handleQuiz)

		r.Post("/api/sessions", s.handleStartSession)
		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Post("/api/sessions/{sessionID}/messages", s.handleSessionMessage)
		r.Post("/api/study-plan", s.handleStudyPlan)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
