package server

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/noema-ai/noema/internal/engine"
	"github.com/noema-ai/noema/internal/state"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}
	if req.Name == "" {
		req.Name = "unnamed"
	}

	s.mu.Lock()
	ep := s.eng.Ingest(req.Text, req.Name)
	s.snapshotLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            ep.ID,
		"name":          ep.Name,
		"neighborhoods": len(ep.Neighborhoods),
	})
}

func (s *Server) handleConscious(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	s.mu.Lock()
	n := s.eng.AddToConscious(req.Text)
	if n != nil {
		s.snapshotLocked()
	}
	s.mu.Unlock()

	if n == nil {
		writeError(w, http.StatusBadRequest, "text has no tokens")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    n.ID,
		"words": len(n.Occurrences),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	s.mu.Lock()
	res := s.eng.ProcessQuery(req.Query)
	ctx := s.eng.ComposeContext(res.Surface, res.Activation, res.Interference)
	s.snapshotLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"context": ctx,
		"surface": map[string]any{
			"fragments":           len(res.Surface.Fragments),
			"vividNeighborhoods":  len(res.Surface.VividNeighborhoods),
			"vividEpisodes":       len(res.Surface.VividEpisodes),
			"subconsciousWords":   len(res.Activation.Subconscious),
			"consciousWords":      len(res.Activation.Conscious),
			"interferenceSamples": len(res.Interference.ByOccurrence),
		},
	})
}

// handleContext runs the pipeline like handleQuery but returns only the
// composed bundle, the exact payload an agent would inject.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	s.mu.Lock()
	res := s.eng.ProcessQuery(req.Query)
	ctx := s.eng.ComposeContext(res.Surface, res.Activation, res.Interference)
	s.snapshotLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, ctx)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	doc := state.Export(s.eng.System(), nil, nil)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc state.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sys, err := state.Import(&doc, rng)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	s.eng = engine.New(sys, engine.DefaultParams())
	s.snapshotLocked()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "imported",
		"episodes":    len(sys.Episodes),
		"occurrences": sys.N(),
	})
}

// snapshotLocked persists the current state; callers hold s.mu.
func (s *Server) snapshotLocked() {
	if s.db == nil {
		return
	}
	if err := s.db.SaveSnapshot(state.Export(s.eng.System(), nil, nil)); err != nil {
		log.Printf("server: snapshot: %v", err)
	}
}
