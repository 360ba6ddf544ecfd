package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/studyforge/syllabd/internal/layout"
)

// CSVParser handles CSV files: each data row flattens to one "header: value"
// line.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) ([]layout.Page, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	var lines []string
	for _, row := range records[1:] {
		var parts []string
		for j, cell := range row {
			if j < len(headers) {
				parts = append(parts, headers[j]+": "+cell)
			} else {
				parts = append(parts, cell)
			}
		}
		lines = append(lines, strings.Join(parts, ", "))
	}

	if len(lines) == 0 {
		return nil, nil
	}
	return []layout.Page{pageFromLines(1, lines)}, nil
}
