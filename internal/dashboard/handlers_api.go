package dashboard

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sergeknystautas/gitviz/internal/api/contracts"
	"github.com/sergeknystautas/gitviz/internal/schema"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, contracts.HealthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Version:   s.version,
	})
}

// handleSchemaList handles GET /api/schema.
func (s *Server) handleSchemaList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"labels": schema.Labels()})
}

// handleSchema handles GET /api/schema/{label}.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	out, err := schema.Get(chi.URLParam(r, "label"))
	if err != nil {
		if errors.Is(err, schema.ErrUnknownLabel) {
			writeJSONError(w, http.StatusNotFound, "Schema not found", err.Error())
			return
		}
		s.logger.Error("schema generation failed", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to generate schema", "")
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSONError(w, http.StatusNotFound, "API endpoint not found", "")
		return
	}
	http.NotFound(w, r)
}
