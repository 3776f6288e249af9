// Package ingest reads patient records from tabular exports. Spreadsheet
// and CSV files share one column vocabulary: headers are normalized to
// lowercase snake_case and mapped onto the record's nested field groups.
package ingest

import (
	"strings"
	"time"

	"github.com/okian/mnemo/internal/domain/model"
)

// Column names recognized after normalization. Unknown columns are
// ignored so exports can carry extra bookkeeping fields.
const (
	colPatientID = "patient_id"
	colTimestamp = "timestamp"
)

// columnGroup routes a normalized column name to a field group within
// PatientData.
type columnGroup int

const (
	groupIgnore columnGroup = iota
	groupDemographics
	groupCognitive
	groupMedicalHistory
	groupSymptoms
	groupBloodMarkers
	groupGenotype
)

var columnGroups = map[string]columnGroup{
	"age":                       groupDemographics,
	"education_years":           groupDemographics,
	"gender":                    groupDemographics,
	"mmse_score":                groupCognitive,
	"verbal_fluency":            groupCognitive,
	"clock_drawing_test":        groupCognitive,
	"family_history_alzheimers": groupMedicalHistory,
	"cardiovascular_conditions": groupMedicalHistory,
	"memory_issues":             groupSymptoms,
	"language_difficulties":     groupSymptoms,
	"daily_activity_changes":    groupSymptoms,
	"beta_amyloid":              groupBloodMarkers,
	"apoe_genotype":             groupGenotype,
}

// normalizeColumn lowercases a header and replaces spaces with
// underscores, so "MMSE Score" and "mmse_score" map to the same field.
func normalizeColumn(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.ReplaceAll(name, " ", "_")
}

// rowToRecord builds one record from a header-to-value row. Empty cells
// are skipped so absent observations degrade the same way as absent JSON
// fields.
func rowToRecord(headers, cells []string) model.Record {
	rec := model.Record{
		PatientData: model.PatientData{
			Demographics:   model.Fields{},
			CognitiveTests: model.Fields{},
			MedicalHistory: model.Fields{},
			Symptoms:       model.Fields{},
			Biomarkers:     model.Biomarkers{BloodMarkers: model.Fields{}},
		},
	}

	for i, header := range headers {
		if i >= len(cells) {
			break
		}
		value := strings.TrimSpace(cells[i])
		if value == "" {
			continue
		}

		col := normalizeColumn(header)
		switch col {
		case colPatientID:
			rec.PatientID = value
			continue
		case colTimestamp:
			if ts, err := time.Parse(time.RFC3339, value); err == nil {
				rec.Timestamp = ts
			} else if ts, err := time.Parse("2006-01-02", value); err == nil {
				rec.Timestamp = ts
			}
			continue
		}

		switch columnGroups[col] {
		case groupDemographics:
			rec.PatientData.Demographics[col] = model.Text(value)
		case groupCognitive:
			rec.PatientData.CognitiveTests[col] = model.Text(value)
		case groupMedicalHistory:
			rec.PatientData.MedicalHistory[col] = model.Text(value)
		case groupSymptoms:
			rec.PatientData.Symptoms[col] = model.Text(value)
		case groupBloodMarkers:
			rec.PatientData.Biomarkers.BloodMarkers[col] = model.Text(value)
		case groupGenotype:
			rec.PatientData.Biomarkers.ApoeGenotype = model.Text(value)
		}
	}
	return rec
}
