package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrNoHeader reports a tabular source without a header row.
var ErrNoHeader = errors.New("missing header row")

// ReadCSV parses records from a CSV stream. The first row is the header;
// rows without a patient_id are skipped.
func ReadCSV(r io.Reader) ([]Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var results []Result
	line := 1
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}
		results = append(results, makeResult(headers, cells, line))
	}
	return results, nil
}
