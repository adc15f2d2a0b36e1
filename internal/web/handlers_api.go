package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/csvsearch/internal/core"
	"github.com/go-chi/chi/v5"
)

// DefaultHistoryLimit is the number of load records /api/history returns
// without ?limit=.
const DefaultHistoryLimit = 50

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"response_type": core.ResponseSuccess,
		"data":          s.service.Datasets(),
	})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Dataset(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"response_type": core.ResponseSuccess,
		"data":          info,
	})
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.Unload(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"response_type": core.ResponseSuccess,
		"id":            id,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.service.History(r.Context(), parseIntParam(r, "limit", DefaultHistoryLimit))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"response_type": core.ResponseSuccess,
		"data":          recs,
	})
}

// handleHealth reports liveness plus dataset and load counts.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"datasets": len(s.service.Datasets()),
		"loads":    s.service.LoadStatus(),
	})
}
