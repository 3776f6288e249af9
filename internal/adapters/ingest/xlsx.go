package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet reports a workbook without a usable sheet.
var ErrNoSheet = errors.New("workbook has no sheets")

// ReadWorkbook parses records from an xlsx stream. The first sheet is
// read; its first row is the header.
func ReadWorkbook(r io.Reader) ([]Result, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	headers := rows[0]
	results := make([]Result, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		results = append(results, makeResult(headers, cells, i+2))
	}
	return results, nil
}
