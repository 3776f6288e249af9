package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/internal/domain/risk"
	"github.com/okian/mnemo/pkg/metrics"
)

// RecordsHandler handles synchronous record submissions.
type RecordsHandler struct {
	deps Dependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps Dependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandlePostRecord handles POST /api/records requests. The record is
// processed inline and the full pipeline result is returned.
func (h *RecordsHandler) HandlePostRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_record"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := req.toRecord()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if rec.RecordID != "" && h.deps.SeenAndRecord(r.Context(), rec.RecordID) {
		metrics.RecordRecordDuplicate()
		writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate", "record_id": rec.RecordID})
		return
	}

	result, err := h.deps.Process(r.Context(), rec)
	if err != nil {
		if rec.RecordID != "" {
			h.deps.Unrecord(r.Context(), rec.RecordID)
		}
		var parseErr *risk.ParseError
		if errors.As(err, &parseErr) {
			writeError(w, http.StatusUnprocessableEntity, "unprocessable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// toRecord converts the wire request to a domain record. An absent
// timestamp stays zero and is defaulted downstream.
func (r recordRequest) toRecord() (model.Record, error) {
	rec := model.Record{
		RecordID:    r.RecordID,
		PatientID:   r.PatientID,
		PatientData: r.PatientData,
	}
	if r.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			return model.Record{}, errors.New("invalid timestamp; must be RFC3339")
		}
		rec.Timestamp = ts
	}
	return rec, nil
}
