// Package server provides the Omny HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/omny/internal/coach"
	"github.com/hyperjump/omny/internal/config"
	"github.com/hyperjump/omny/internal/retrieval"
	"github.com/hyperjump/omny/internal/storage"
	"github.com/hyperjump/omny/internal/vector"
	"github.com/hyperjump/omny/pkg/utils"
)

const defaultRequestTimeout = 120 * time.Second

// Knowledge exposes the knowledge base to status and search endpoints.
// It is nil when no index has been built.
type Knowledge struct {
	Storage  storage.Storage
	Vectors  vector.Index
	Searcher *retrieval.IndexSearcher
	// Paths are summed for the reported disk usage.
	Paths []string
}

// Server is the HTTP server for the Omny API.
type Server struct {
	coach     *coach.Service
	knowledge *Knowledge
	config    config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server. knowledge may be nil.
func NewServer(svc *coach.Service, knowledge *Knowledge, cfg config.ServerConfig, logger *zap.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Server{
		coach:     svc,
		knowledge: knowledge,
		config:    cfg,
		logger:    utils.OrNop(logger),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.RequestTimeout))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)
		r.Get("/profile/metrics", s.handleMetrics)
		r.Post("/coach/messages", s.handleCoachMessage)
		r.Post("/chat/messages", s.handleChatMessage)
		r.Get("/transcripts", s.handleGetTranscripts)
		r.Delete("/transcripts", s.handleDeleteTranscripts)
		r.Post("/vision", s.handleVision)
		r.Post("/plans/export", s.handleExportPlan)
		r.Post("/knowledge/search", s.handleKnowledgeSearch)
		r.Get("/status", s.handleStatus)
	})

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
	})
	return c.Handler(r)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestID tags each request with a UUID, reusing a client-supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
