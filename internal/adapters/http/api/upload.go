package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/okian/mnemo/internal/adapters/ingest"
)

// UploadHandler ingests tabular record exports.
type UploadHandler struct {
	deps Dependencies
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(deps Dependencies) *UploadHandler {
	return &UploadHandler{deps: deps}
}

type skippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type uploadResponse struct {
	Accepted int          `json:"accepted"`
	Rejected int          `json:"rejected"`
	Skipped  []skippedRow `json:"skipped,omitempty"`
}

// HandlePostUpload handles POST /api/records/upload requests. The body is
// a multipart form whose "file" part holds a CSV or xlsx export; rows are
// enqueued for background processing like a JSON batch.
func (h *UploadHandler) HandlePostUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_upload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer file.Close()

	var results []ingest.Result
	if strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		results, err = ingest.ReadWorkbook(file)
	} else {
		results, err = ingest.ReadCSV(file)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var resp uploadResponse
	for _, res := range results {
		if !res.Ok() {
			resp.Skipped = append(resp.Skipped, skippedRow{Row: res.Row, Reason: res.Skip})
			continue
		}
		if err := h.deps.Enqueue(r.Context(), res.Record); err != nil {
			resp.Rejected++
			writeJSON(w, http.StatusTooManyRequests, resp)
			return
		}
		resp.Accepted++
	}
	writeJSON(w, http.StatusAccepted, resp)
}
