// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the disease knowledge base and the diagnosis
// history in a SQLite database under the data directory.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/pdiddy/symptomatch/internal/dataset"
	"github.com/pdiddy/symptomatch/internal/knowledge"
	"github.com/pdiddy/symptomatch/internal/normalize"
	"github.com/pdiddy/symptomatch/pkg/types"
)

const (
	dbFile     = "symptomatch.db"
	exportFile = "export.yaml"
)

// Store manages the SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewStore opens or creates the database at cfg.DataDir/symptomatch.db and
// creates the schema if it does not exist.
func NewStore(cfg types.KnowledgeBaseConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:      db,
		dataDir: dataDir,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.dataDir, dbFile)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS diseases (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS symptoms (
			disease TEXT NOT NULL REFERENCES diseases(name) ON DELETE CASCADE,
			symptom TEXT NOT NULL,
			source TEXT NOT NULL,
			UNIQUE(disease, symptom)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symptoms_symptom ON symptoms(symptom)`,
		`CREATE INDEX IF NOT EXISTS idx_symptoms_source ON symptoms(source)`,
		`CREATE TABLE IF NOT EXISTS import_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS diagnoses (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			input TEXT NOT NULL,
			classified TEXT,
			best_match TEXT,
			percentage REAL NOT NULL DEFAULT 0,
			extracted TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ImportSummary holds counts from one dataset import.
type ImportSummary struct {
	Source   string
	Rows     int
	Dropped  int
	Diseases int
	Symptoms int
	Skipped  bool
	Updated  bool
}

// Import loads the dataset CSV at path into the database. An unchanged file
// (same modification time as the last import) is skipped. Otherwise the
// rows previously imported from path are replaced in one transaction.
// Progress lines go to w. After a change the knowledge base is exported to
// data-dir/export.yaml.
func (s *Store) Import(ctx context.Context, path string, cols types.DatasetColumns, w io.Writer) (ImportSummary, error) {
	source, err := filepath.Abs(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	summary := ImportSummary{Source: source}

	info, err := os.Stat(source)
	if err != nil {
		return summary, fmt.Errorf("reading dataset: %w", err)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	var storedModTime string
	err = s.db.QueryRowContext(ctx,
		`SELECT file_mod_time FROM import_status WHERE source = ?`, source,
	).Scan(&storedModTime)
	if err == nil && storedModTime == modTime {
		fmt.Fprintf(w, "skipped %s (unchanged)\n", path)
		summary.Skipped = true
		return summary, nil
	}
	summary.Updated = err == nil

	records, loaded, err := dataset.LoadFile(source, cols)
	if err != nil {
		return summary, err
	}
	summary.Rows = loaded.Rows
	summary.Dropped = loaded.Dropped

	// Build validates and normalizes the rows the same way the in-memory
	// knowledge base does.
	kb, err := knowledge.Build(records)
	if err != nil {
		return summary, fmt.Errorf("%s: %w", path, err)
	}

	if summary.Updated {
		fmt.Fprintf(w, "updating %s (%d rows)\n", path, loaded.Rows)
	} else {
		fmt.Fprintf(w, "importing %s (%d rows)\n", path, loaded.Rows)
	}

	n, err := s.importRecords(ctx, source, kb.Records(), modTime)
	if err != nil {
		return summary, err
	}
	summary.Diseases = kb.Len()
	summary.Symptoms = n

	fmt.Fprintf(w, "\ndiseases: %d, symptoms: %d, rows dropped: %d\n",
		summary.Diseases, summary.Symptoms, summary.Dropped)

	if err := s.writeExport(ctx); err != nil {
		fmt.Fprintf(w, "warning: %s write failed: %v\n", exportFile, err)
	}

	return summary, nil
}

func (s *Store) importRecords(ctx context.Context, source string, records []types.DiseaseRecord, modTime string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM symptoms WHERE source = ?`, source); err != nil {
		return 0, fmt.Errorf("deleting old symptoms: %w", err)
	}

	diseaseStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO diseases (name) VALUES (?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing disease insert: %w", err)
	}
	defer diseaseStmt.Close()

	symptomStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO symptoms (disease, symptom, source) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing symptom insert: %w", err)
	}
	defer symptomStmt.Close()

	count := 0
	for _, rec := range records {
		if _, err := diseaseStmt.ExecContext(ctx, rec.Disease); err != nil {
			return 0, fmt.Errorf("inserting disease %s: %w", rec.Disease, err)
		}
		for _, sym := range rec.Symptoms {
			if _, err := symptomStmt.ExecContext(ctx, rec.Disease, sym, source); err != nil {
				return 0, fmt.Errorf("inserting symptom %s of %s: %w", sym, rec.Disease, err)
			}
			count++
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM diseases WHERE name NOT IN (SELECT DISTINCT disease FROM symptoms)`,
	); err != nil {
		return 0, fmt.Errorf("pruning diseases: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO import_status (source, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		source, modTime,
	)
	if err != nil {
		return 0, fmt.Errorf("updating import status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return count, nil
}

// Diseases returns every stored disease with its symptoms, both sorted.
func (s *Store) Diseases(ctx context.Context) ([]types.DiseaseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT disease, symptom FROM symptoms ORDER BY disease, symptom`)
	if err != nil {
		return nil, fmt.Errorf("querying symptoms: %w", err)
	}
	defer rows.Close()

	var records []types.DiseaseRecord
	for rows.Next() {
		var disease, symptom string
		if err := rows.Scan(&disease, &symptom); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if n := len(records); n == 0 || records[n-1].Disease != disease {
			records = append(records, types.DiseaseRecord{Disease: disease})
		}
		last := &records[len(records)-1]
		last.Symptoms = append(last.Symptoms, symptom)
	}
	return records, rows.Err()
}

// Records returns the stored knowledge base in the dataset row form that
// knowledge.Build accepts: one row per disease.
func (s *Store) Records(ctx context.Context) ([]types.DatasetRecord, error) {
	diseases, err := s.Diseases(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]types.DatasetRecord, len(diseases))
	for i, d := range diseases {
		records[i] = types.DatasetRecord{
			Disease:  d.Disease,
			Symptoms: normalize.JoinSymptoms(d.Symptoms),
		}
	}
	return records, nil
}

// FindBySymptom returns the diseases having a symptom that contains query
// after normalization. Each record lists only the matching symptoms.
// Results are sorted by disease name; a positive limit caps the number of
// diseases.
func (s *Store) FindBySymptom(ctx context.Context, query string, limit int) ([]types.DiseaseRecord, error) {
	q := normalize.Normalize(query)
	if q == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT disease, symptom FROM symptoms WHERE instr(symptom, ?) > 0`, q)
	if err != nil {
		return nil, fmt.Errorf("searching symptoms: %w", err)
	}
	defer rows.Close()

	byDisease := make(map[string][]string)
	for rows.Next() {
		var disease, symptom string
		if err := rows.Scan(&disease, &symptom); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		byDisease[disease] = append(byDisease[disease], symptom)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]types.DiseaseRecord, 0, len(byDisease))
	for disease, symptoms := range byDisease {
		sort.Strings(symptoms)
		results = append(results, types.DiseaseRecord{Disease: disease, Symptoms: symptoms})
	}
	sort.Slice(results, func(i, j int) bool {
		return strings.Compare(results[i].Disease, results[j].Disease) < 0
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
