// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset reads the disease/symptom CSV the knowledge base is built
// from. The file has a header row; the disease and symptom columns are found
// by name and every other column is ignored.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/symptomatch/internal/knowledge"
	"github.com/pdiddy/symptomatch/pkg/types"
)

// Summary counts what Load read.
type Summary struct {
	Rows    int // data rows read, excluding the header
	Kept    int // rows returned
	Dropped int // rows with an empty symptom field
}

// Load reads CSV records from r. Header names are matched against cols
// case-insensitively after trimming. Rows whose symptom field is blank are
// dropped. A missing column or an empty file is reported as an error
// wrapping knowledge.ErrData.
func Load(r io.Reader, cols types.DatasetColumns) ([]types.DatasetRecord, Summary, error) {
	var sum Summary

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, sum, fmt.Errorf("dataset has no header row: %w", knowledge.ErrData)
	}
	if err != nil {
		return nil, sum, fmt.Errorf("reading header: %w", err)
	}

	diseaseCol, err := column(header, cols.Disease)
	if err != nil {
		return nil, sum, err
	}
	symptomCol, err := column(header, cols.Symptoms)
	if err != nil {
		return nil, sum, err
	}

	var records []types.DatasetRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, sum, fmt.Errorf("reading row %d: %w", sum.Rows+1, err)
		}
		sum.Rows++

		symptoms := field(row, symptomCol)
		if strings.TrimSpace(symptoms) == "" {
			sum.Dropped++
			continue
		}
		records = append(records, types.DatasetRecord{
			Disease:  field(row, diseaseCol),
			Symptoms: symptoms,
		})
	}
	sum.Kept = len(records)
	return records, sum, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string, cols types.DatasetColumns) ([]types.DatasetRecord, Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	records, sum, err := Load(f, cols)
	if err != nil {
		return nil, sum, fmt.Errorf("%s: %w", path, err)
	}
	return records, sum, nil
}

func column(header []string, name string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found in header %q: %w", name, header, knowledge.ErrData)
}

// field returns row[i], or "" for short rows.
func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
