package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVLoader handles CSV files, converting them to a markdown table so
// the atomizer sees them as a single table block.
type CSVLoader struct{}

func (l *CSVLoader) Load(r io.Reader, filename string) (*Source, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	src := &Source{Title: titleFromFilename(filename)}
	if len(records) == 0 {
		return src, nil
	}

	var out strings.Builder
	writeRow := func(cells []string) {
		out.WriteString("|")
		for _, cell := range cells {
			out.WriteString(" " + strings.ReplaceAll(cell, "|", "\\|") + " |")
		}
		out.WriteString("\n")
	}

	writeRow(records[0])
	out.WriteString("|")
	for range records[0] {
		out.WriteString(" --- |")
	}
	out.WriteString("\n")
	for _, row := range records[1:] {
		writeRow(row)
	}

	src.Text = out.String()
	return src, nil
}
