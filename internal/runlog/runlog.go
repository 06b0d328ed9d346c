// Package runlog persists pipeline run history to SQLite so `confpress
// history` can show past runs across daemon restarts.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// StepRecord is one step's outcome within a stored run.
type StepRecord struct {
	Name     string        `json:"name"`
	Result   string        `json:"result"` // success|warning|fatal|canceled|skipped
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Retries  int           `json:"retries,omitempty"`
}

// RunRecord is one stored pipeline run.
type RunRecord struct {
	ID        int64
	RunID     string
	Trigger   string // manual|watch|schedule
	Outcome   string // success|warning|failed|canceled
	StartedAt time.Time
	Duration  time.Duration
	Commit    string // publish commit hash, empty when not published
	Steps     []StepRecord
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the run log at dbPath. Use ":memory:" for an
// in-memory store.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize run log schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		trigger_kind TEXT NOT NULL,
		outcome TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		publish_commit TEXT,
		steps TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores one finished run.
func (s *Store) Record(ctx context.Context, rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, trigger_kind, outcome, started_at, duration_ms, publish_commit, steps) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.RunID, rec.Trigger, rec.Outcome, rec.StartedAt.Unix(),
		rec.Duration.Milliseconds(), rec.Commit, steps,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, trigger_kind, outcome, started_at, duration_ms, publish_commit, steps FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// ByRunID returns the stored record for a specific run.
func (s *Store) ByRunID(ctx context.Context, runID string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, trigger_kind, outcome, started_at, duration_ms, publish_commit, steps FROM runs WHERE run_id = ? ORDER BY id DESC LIMIT 1",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	recs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func scanRuns(rows *sql.Rows) ([]RunRecord, error) {
	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedUnix, durationMS int64
		var steps []byte

		err := rows.Scan(&rec.ID, &rec.RunID, &rec.Trigger, &rec.Outcome,
			&startedUnix, &durationMS, &rec.Commit, &steps)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = time.Unix(startedUnix, 0)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if len(steps) > 0 {
			if err := json.Unmarshal(steps, &rec.Steps); err != nil {
				return nil, fmt.Errorf("unmarshal steps: %w", err)
			}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return recs, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
