// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/mnemo/internal/domain/dedupe"
	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/internal/domain/trend"
	"github.com/okian/mnemo/internal/domain/types"
	"github.com/okian/mnemo/internal/semantic"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Process runs one record through the pipeline synchronously.
	Process(ctx context.Context, rec model.Record) (types.ProcessResult, error)

	// Enqueue pushes a record for async processing. Errors signal
	// backpressure or shutdown.
	Enqueue(ctx context.Context, rec model.Record) error

	// Progression recomputes longitudinal analysis over stored history.
	Progression(ctx context.Context, patientID string) (trend.Progression, error)

	// Query runs a similarity search over indexed records.
	Query(ctx context.Context, query string, topK int) ([]semantic.Match, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	recordsHandler     *RecordsHandler
	batchHandler       *BatchHandler
	uploadHandler      *UploadHandler
	progressionHandler *ProgressionHandler
	queryHandler       *QueryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		recordsHandler:     NewRecordsHandler(deps),
		batchHandler:       NewBatchHandler(deps),
		uploadHandler:      NewUploadHandler(deps),
		progressionHandler: NewProgressionHandler(deps),
		queryHandler:       NewQueryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/records", MetricsMiddleware(s.recordsHandler.HandlePostRecord, "records"))
	mux.HandleFunc("/api/records/batch", MetricsMiddleware(s.batchHandler.HandlePostBatch, "records_batch"))
	mux.HandleFunc("/api/records/upload", MetricsMiddleware(s.uploadHandler.HandlePostUpload, "records_upload"))
	mux.HandleFunc("/api/patients/", MetricsMiddleware(s.progressionHandler.HandleGetProgression, "progression"))
	mux.HandleFunc("/api/query", MetricsMiddleware(s.queryHandler.HandlePostQuery, "query"))
}

// recordRequest mirrors the intake schema for POST /api/records.
type recordRequest struct {
	RecordID    string            `json:"record_id"`
	PatientID   string            `json:"patient_id"`
	Timestamp   string            `json:"timestamp"`
	PatientData model.PatientData `json:"patient_data"`
}

func (r recordRequest) validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return errors.New("missing patient_id")
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
