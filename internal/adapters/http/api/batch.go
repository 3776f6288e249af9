package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/mnemo/pkg/metrics"
)

// BatchHandler handles asynchronous batch record submissions.
type BatchHandler struct {
	deps Dependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps Dependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

type batchResponse struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// HandlePostBatch handles POST /api/records/batch requests. Records are
// enqueued for background processing; a full queue rejects the remainder
// with 429 so the caller can retry later.
func (h *BatchHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var reqs []recordRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var resp batchResponse
	for _, req := range reqs {
		if err := req.validate(); err != nil {
			resp.Rejected++
			continue
		}
		rec, err := req.toRecord()
		if err != nil {
			resp.Rejected++
			continue
		}

		if rec.RecordID != "" && h.deps.SeenAndRecord(r.Context(), rec.RecordID) {
			metrics.RecordRecordDuplicate()
			resp.Duplicates++
			continue
		}

		if err := h.deps.Enqueue(r.Context(), rec); err != nil {
			// Roll back the seen mark so the caller can resubmit.
			if rec.RecordID != "" {
				h.deps.Unrecord(r.Context(), rec.RecordID)
			}
			resp.Rejected++
			writeJSON(w, http.StatusTooManyRequests, resp)
			return
		}
		resp.Accepted++
	}
	writeJSON(w, http.StatusAccepted, resp)
}
