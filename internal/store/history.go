// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pdiddy/symptomatch/pkg/types"
)

const defaultHistoryLimit = 20

// RecordDiagnosis stores one diagnosis and returns it with its ID and time.
// IDs are ULIDs from a monotonic source, so they sort in creation order.
func (s *Store) RecordDiagnosis(ctx context.Context, input string, result types.DiagnosisResult) (types.DiagnosisRecord, error) {
	s.mu.Lock()
	now := s.now().UTC()
	id := ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
	s.mu.Unlock()

	extracted, err := json.Marshal(result.Extracted)
	if err != nil {
		return types.DiagnosisRecord{}, fmt.Errorf("marshaling extracted symptoms: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO diagnoses (id, created_at, input, classified, best_match, percentage, extracted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, now.Format(time.RFC3339Nano), input,
		result.ClassifiedDisease, result.BestMatchDisease, result.BestMatchPercentage,
		string(extracted),
	)
	if err != nil {
		return types.DiagnosisRecord{}, fmt.Errorf("inserting diagnosis: %w", err)
	}

	return types.DiagnosisRecord{
		ID:        id,
		CreatedAt: now,
		Input:     input,
		Result:    result,
	}, nil
}

// History returns the most recent diagnoses, newest first. A non-positive
// limit uses the default of 20.
func (s *Store) History(ctx context.Context, limit int) ([]types.DiagnosisRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input, classified, best_match, percentage, extracted
		 FROM diagnoses ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []types.DiagnosisRecord
	for rows.Next() {
		var (
			rec        types.DiagnosisRecord
			createdAt  string
			classified sql.NullString
			bestMatch  sql.NullString
			extracted  sql.NullString
		)
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Input, &classified, &bestMatch,
			&rec.Result.BestMatchPercentage, &extracted); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", rec.ID, err)
		}
		rec.Result.ClassifiedDisease = classified.String
		rec.Result.BestMatchDisease = bestMatch.String
		if extracted.Valid && extracted.String != "" {
			if err := json.Unmarshal([]byte(extracted.String), &rec.Result.Extracted); err != nil {
				return nil, fmt.Errorf("decoding extracted symptoms of %s: %w", rec.ID, err)
			}
		}

		records = append(records, rec)
	}
	return records, rows.Err()
}
