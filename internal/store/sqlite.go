package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunRecorder = (*RunLog)(nil)

// RunLog records fetch-run history in a SQLite database.
type RunLog struct {
	db *sql.DB
}

// NewRunLog opens (or creates) the run-log database at dbPath and ensures
// the schema exists.
func NewRunLog(dbPath string) (*RunLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	date     TEXT NOT NULL,
	started  TEXT NOT NULL,
	finished TEXT NOT NULL,
	jobs     INTEGER NOT NULL,
	failed   INTEGER NOT NULL,
	status   TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run log schema: %w", err)
	}

	return &RunLog{db: db}, nil
}

// Close closes the underlying database connection.
func (l *RunLog) Close() error {
	return l.db.Close()
}

// RecordRun appends one run entry.
func (l *RunLog) RecordRun(ctx context.Context, run Run) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (date, started, finished, jobs, failed, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Date,
		run.Started.UTC().Format(time.RFC3339),
		run.Finished.UTC().Format(time.RFC3339),
		run.Jobs,
		run.Failed,
		run.Status,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (l *RunLog) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, date, started, finished, jobs, failed, status
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			started  string
			finished string
		)
		if err := rows.Scan(&run.ID, &run.Date, &started, &finished, &run.Jobs, &run.Failed, &run.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.Started, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("parsing run started time: %w", err)
		}
		if run.Finished, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("parsing run finished time: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
