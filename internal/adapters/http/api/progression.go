package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/mnemo/internal/adapters/repository"
)

// ProgressionHandler serves longitudinal analyses over stored history.
type ProgressionHandler struct {
	deps Dependencies
}

// NewProgressionHandler creates a new progression handler.
func NewProgressionHandler(deps Dependencies) *ProgressionHandler {
	return &ProgressionHandler{deps: deps}
}

// HandleGetProgression handles GET /api/patients/{id}/progression
// requests.
func (h *ProgressionHandler) HandleGetProgression(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_progression"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/patients/")
	patientID, ok := strings.CutSuffix(path, "/progression")
	if !ok || patientID == "" || strings.Contains(patientID, "/") {
		http.NotFound(w, r)
		return
	}

	progression, err := h.deps.Progression(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, progression)
}
