// Package types holds read models shared between the service layer and
// its transports.
package types

import (
	"github.com/okian/mnemo/internal/domain/model"
	"github.com/okian/mnemo/internal/domain/trend"
)

// ProcessResult is the outcome of running one record through the full
// pipeline: scoring, history append, longitudinal analysis and semantic
// indexing.
type ProcessResult struct {
	RecordID       string               `json:"record_id"`
	PatientID      string               `json:"patient_id"`
	RiskAssessment model.RiskAssessment `json:"risk_assessment"`
	Progression    *trend.Progression   `json:"progression,omitempty"`
	ChunksStored   int                  `json:"chunks_stored"`
	IngestError    string               `json:"ingest_error,omitempty"`
}

// Stats is a point-in-time snapshot of pipeline state.
type Stats struct {
	PatientsTracked int `json:"patients_tracked"`
	ChunksStored    int `json:"chunks_stored"`
	QueueSize       int `json:"queue_size"`
	QueueCapacity   int `json:"queue_capacity"`
}
