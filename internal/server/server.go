// Package server exposes the memory engine over a small HTTP API. The
// engine itself is single-threaded; the server serializes every call
// into it behind one mutex.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/noema-ai/noema/internal/engine"
	"github.com/noema-ai/noema/internal/store"
)

// Server is the noema HTTP API server.
type Server struct {
	mu      sync.Mutex
	eng     *engine.Engine
	db      *store.DB
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server over the given engine. db may be nil; snapshots
// are then skipped.
func New(eng *engine.Engine, db *store.DB, version string) *Server {
	s := &Server{
		eng:     eng,
		db:      db,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/ingest", s.handleIngest)
		r.Post("/conscious", s.handleConscious)
		r.Post("/query", s.handleQuery)
		r.Post("/context", s.handleContext)
		r.Get("/state", s.handleExport)
		r.Post("/state", s.handleImport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sys := s.eng.System()
	stats := map[string]any{
		"episodes":      len(sys.Episodes),
		"neighborhoods": sys.NeighborhoodCount(),
		"occurrences":   sys.N(),
	}
	s.mu.Unlock()

	dbOK := s.db != nil
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			dbOK = false
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"memory":  stats,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
