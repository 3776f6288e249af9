// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Text is a scalar field value that tolerates JSON strings, numbers and
// booleans. Clinical exports mix types freely ("75", 75, "10 words"),
// so everything is normalized to its textual form on decode.
type Text string

// UnmarshalJSON accepts a string, number, bool or null.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*t = Text(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*t = Text(strconv.FormatBool(b))
		return nil
	}
	if string(data) == "null" {
		*t = ""
		return nil
	}
	// Fall back to the raw token so scoring can degrade to defaults.
	*t = Text(data)
	return nil
}

// Fields is a flat bag of named scalar observations, e.g. a snapshot's
// cognitive test results. Missing keys resolve to the empty string.
type Fields map[string]Text

// Get returns the value for key, or fallback when the key is absent or empty.
func (f Fields) Get(key, fallback string) string {
	if v, ok := f[key]; ok && string(v) != "" {
		return string(v)
	}
	return fallback
}

// Has reports whether key is present with a non-empty value.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && string(v) != ""
}

// Biomarkers carries the genotype string and the nested blood marker flags.
type Biomarkers struct {
	ApoeGenotype Text   `json:"apoe_genotype,omitempty"`
	BloodMarkers Fields `json:"blood_markers,omitempty"`
}

// PatientData groups one encounter's observations by category. Field paths
// mirror the inbound JSON contract.
type PatientData struct {
	Demographics   Fields     `json:"demographics,omitempty"`
	CognitiveTests Fields     `json:"cognitive_tests,omitempty"`
	MedicalHistory Fields     `json:"medical_history,omitempty"`
	Symptoms       Fields     `json:"symptoms,omitempty"`
	Biomarkers     Biomarkers `json:"biomarkers,omitempty"`
}

// Record is one clinical encounter for one patient. Immutable once created;
// Timestamp defaults to ingestion time when the source omits it.
type Record struct {
	RecordID    string      `json:"record_id,omitempty"`
	PatientID   string      `json:"patient_id"`
	Timestamp   time.Time   `json:"timestamp"`
	PatientData PatientData `json:"patient_data"`
}

// RiskAssessment is derived from exactly one Record and never mutated.
// Each sub-score is clamped to [0,1] before the weighted combination.
type RiskAssessment struct {
	OverallRisk     float64  `json:"overall_risk"`
	CognitiveRisk   float64  `json:"cognitive_risk"`
	GeneticRisk     float64  `json:"genetic_risk"`
	LifestyleRisk   float64  `json:"lifestyle_risk"`
	WarningSigns    []string `json:"warning_signs"`
	Recommendations []string `json:"recommendations"`
}

// Assessed pairs a record with the assessment it produced. History entries
// loaded from older deployments may lack an assessment, so it is optional.
type Assessed struct {
	Record
	RiskAssessment *RiskAssessment `json:"risk_assessment,omitempty"`
}
