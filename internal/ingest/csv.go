// Package ingest brings external event data into the catalog: source
// connectors, batch normalization, deduplication, and upsert.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource reads raw event rows from a CSV file with a header row.
// Column names become raw field names; the normalizer resolves the
// schema aliases, so both the structured and the legacy export format
// load through the same path.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source for one CSV file.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name identifies the source in logs and telemetry.
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// FetchRaw reads all rows into raw field maps.
func (s *CSVSource) FetchRaw(ctx context.Context) ([]map[string]any, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %w", s.path, err)
	}
	return rows, nil
}

// readCSV decodes header-addressed rows. Hyphenated column names are
// folded to underscores so both export dialects map to the same fields.
// Empty cells are omitted rather than stored as empty strings.
func readCSV(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows appear in older exports

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range header {
		header[i] = strings.ReplaceAll(strings.TrimSpace(strings.ToLower(name)), "-", "_")
	}

	var rows []map[string]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}

		row := make(map[string]any, len(header))
		for i, value := range record {
			if i >= len(header) {
				break
			}
			value = strings.TrimSpace(value)
			if value != "" {
				row[header[i]] = value
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
