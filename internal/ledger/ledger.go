// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records batch runs and per-file outcomes in a local
// SQLite database so repeated invocations over a directory leave an
// inspectable history.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ocr-engine/pkg/types"
)

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			processed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun inserts a new run row and returns its ID.
func (s *Store) BeginRun(ctx context.Context, startedAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at) VALUES (?)`,
		startedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run ID: %w", err)
	}
	return id, nil
}

// RecordFile stores one file's outcome under a run.
func (s *Store) RecordFile(ctx context.Context, runID int64, name string, outcome types.Outcome, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (run_id, name, outcome, detail) VALUES (?, ?, ?, ?)`,
		runID, name, string(outcome), detail,
	)
	if err != nil {
		return fmt.Errorf("inserting file record: %w", err)
	}
	return nil
}

// FinishRun stamps the run with its end time and summary counters.
func (s *Store) FinishRun(ctx context.Context, runID int64, summary types.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, processed = ?, skipped = ?, errors = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		summary.Processed, summary.Skipped, summary.Errors, runID,
	)
	if err != nil {
		return fmt.Errorf("updating run %d: %w", runID, err)
	}
	return nil
}

// Run is one recorded batch run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    types.RunSummary
}

// FileRecord is one file's recorded outcome within a run.
type FileRecord struct {
	Name    string
	Outcome types.Outcome
	Detail  string
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), processed, skipped, errors
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished,
			&r.Summary.Processed, &r.Summary.Skipped, &r.Summary.Errors); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, started); perr == nil {
			r.StartedAt = t
		}
		if t, perr := time.Parse(time.RFC3339, finished); perr == nil {
			r.FinishedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunFiles returns the per-file records of one run, in recorded order.
func (s *Store) RunFiles(ctx context.Context, runID int64) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, outcome, COALESCE(detail, '') FROM files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files for run %d: %w", runID, err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var rec FileRecord
		var outcome string
		if err := rows.Scan(&rec.Name, &outcome, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scanning file record: %w", err)
		}
		rec.Outcome = types.Outcome(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}
