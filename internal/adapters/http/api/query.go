package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/mnemo/internal/semantic"
)

// QueryHandler serves similarity searches over indexed records.
type QueryHandler struct {
	deps Dependencies
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(deps Dependencies) *QueryHandler {
	return &QueryHandler{deps: deps}
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type queryResponse struct {
	Query   string           `json:"query"`
	Matches []semantic.Match `json:"matches"`
}

// HandlePostQuery handles POST /api/query requests.
func (h *QueryHandler) HandlePostQuery(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_query"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing query")))
		return
	}

	matches, err := h.deps.Query(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if matches == nil {
		matches = []semantic.Match{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Query: req.Query, Matches: matches})
}
