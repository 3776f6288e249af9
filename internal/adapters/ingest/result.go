package ingest

import "github.com/okian/mnemo/internal/domain/model"

// Result is one parsed row. Rows that cannot form a record carry a Skip
// reason instead of failing the whole file.
type Result struct {
	Record model.Record
	Row    int
	Skip   string
}

// Ok reports whether the row produced a usable record.
func (r Result) Ok() bool {
	return r.Skip == ""
}

func makeResult(headers, cells []string, row int) Result {
	rec := rowToRecord(headers, cells)
	if rec.PatientID == "" {
		return Result{Row: row, Skip: "missing patient_id"}
	}
	return Result{Record: rec, Row: row}
}

// Records filters results down to the usable records.
func Records(results []Result) []model.Record {
	records := make([]model.Record, 0, len(results))
	for _, r := range results {
		if r.Ok() {
			records = append(records, r.Record)
		}
	}
	return records
}
