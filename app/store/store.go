// Package store persists suite runs and per-trial verdicts in SQLite, used
// by the dashboard and for exit-code decisions in monitor mode.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// Status of a single trial
type Status string

// trial statuses
const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Kind of a trial, positive asserts on location, negative on rejection
type Kind string

// trial kinds
const (
	KindPositive Kind = "positive"
	KindNegative Kind = "negative"
)

// Run is one execution of the whole suite
type Run struct {
	ID         int64     `db:"id"`
	Target     string    `db:"target"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Total      int       `db:"total"`
	Passed     int       `db:"passed"`
	Failed     int       `db:"failed"`
}

// Trial is one scenario verdict inside a run
type Trial struct {
	ID          int64         `db:"id"`
	RunID       int64         `db:"run_id"`
	Description string        `db:"description"`
	MainMenu    string        `db:"main_menu"`
	SubMenu     string        `db:"sub_menu"`
	Kind        Kind          `db:"kind"`
	Status      Status        `db:"status"`
	Location    string        `db:"location"`
	Error       string        `db:"error"`
	Screenshot  string        `db:"screenshot"`
	StartedAt   time.Time     `db:"started_at"`
	ElapsedMs   int64         `db:"elapsed_ms"`
}

// Elapsed returns the trial duration
func (t Trial) Elapsed() time.Duration { return time.Duration(t.ElapsedMs) * time.Millisecond }

// Store implements persistence using SQLite
type Store struct {
	db *sqlx.DB
}

// New opens the database and creates the schema
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL for better concurrency between the runner and the dashboard
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			target TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			total INTEGER DEFAULT 0,
			passed INTEGER DEFAULT 0,
			failed INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS trials (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			description TEXT NOT NULL,
			main_menu TEXT NOT NULL,
			sub_menu TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			screenshot TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP NOT NULL,
			elapsed_ms INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trials_run ON trials(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// BeginRun opens a new run record and returns its id
func (s *Store) BeginRun(ctx context.Context, target string, startedAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO runs (target, started_at) VALUES (?, ?)", target, startedAt)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// CompleteRun fills the run summary
func (s *Store) CompleteRun(ctx context.Context, runID int64, finishedAt time.Time, total, passed, failed int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, total = ?, passed = ?, failed = ? WHERE id = ?",
		finishedAt, total, passed, failed, runID)
	if err != nil {
		return fmt.Errorf("complete run %d: %w", runID, err)
	}
	return nil
}

// SaveTrial records a single trial verdict
func (s *Store) SaveTrial(ctx context.Context, trial Trial) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO trials (run_id, description, main_menu, sub_menu, kind, status,
		                    location, error, screenshot, started_at, elapsed_ms)
		VALUES (:run_id, :description, :main_menu, :sub_menu, :kind, :status,
		        :location, :error, :screenshot, :started_at, :elapsed_ms)`,
		trial)
	if err != nil {
		return fmt.Errorf("save trial %q: %w", trial.Description, err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, target, started_at, COALESCE(finished_at, started_at) AS finished_at, total, passed, failed
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}

// Trials returns the trials of a run in execution order
func (s *Store) Trials(ctx context.Context, runID int64) ([]Trial, error) {
	var trials []Trial
	err := s.db.SelectContext(ctx, &trials, `
		SELECT id, run_id, description, main_menu, sub_menu, kind, status,
		       location, error, screenshot, started_at, elapsed_ms
		FROM trials WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("trials for run %d: %w", runID, err)
	}
	return trials, nil
}

// FailedTrials returns the failed trials of a run
func (s *Store) FailedTrials(ctx context.Context, runID int64) ([]Trial, error) {
	all, err := s.Trials(ctx, runID)
	if err != nil {
		return nil, err
	}
	failed := []Trial{}
	for _, t := range all {
		if t.Status == StatusFailed {
			failed = append(failed, t)
		}
	}
	return failed, nil
}

// Close closes the database
func (s *Store) Close() error { return s.db.Close() }
