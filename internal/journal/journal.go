// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal persists run and per-document outcomes to a SQLite
// database for later inspection. The journal is write-behind reporting:
// pipeline state itself lives on the filesystem, and a journal failure never
// fails a run.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store manages the run journal database.
type Store struct {
	db *sql.DB
}

// Run is one recorded pipeline run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Backend    string
	Prompt     string
	Outcome    string
}

// Open opens or creates the journal database at path, creating the schema
// when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
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
			backend TEXT NOT NULL,
			prompt TEXT NOT NULL,
			outcome TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			stage TEXT NOT NULL,
			name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run_id ON documents(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun records the start of a pipeline run and returns its ID.
func (s *Store) BeginRun(backend, prompt string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (started_at, backend, prompt) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), backend, prompt,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run start: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun records a run's completion outcome.
func (s *Store) FinishRun(runID int64, outcome string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, outcome = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), outcome, runID,
	)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// RecordDocument stores one per-document stage outcome.
func (s *Store) RecordDocument(runID int64, stage, name, outcome, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO documents (run_id, stage, name, outcome, detail, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, name, outcome, detail, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording document outcome: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, COALESCE(finished_at, ''), backend, prompt, COALESCE(outcome, '')
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Backend, &r.Prompt, &r.Outcome); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
