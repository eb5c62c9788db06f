// Package store defines storage interfaces for the raw snapshot archive and
// the fetch-run history, with Parquet and SQLite implementations.
package store

import (
	"context"
	"time"

	"spectrabrainz/internal/snapshot"
)

// Archiver persists the raw per-day job records alongside the TSV snapshot.
type Archiver interface {
	// ArchiveDay writes the day's records, replacing any previous archive
	// for that date.
	ArchiveDay(ctx context.Context, date string, records []snapshot.JobRecord) error

	// ReadDay returns the archived records for a date.
	ReadDay(ctx context.Context, date string) ([]snapshot.JobRecord, error)
}

// Run is one fetch-run audit entry.
type Run struct {
	ID       int64
	Date     string // snapshot date, YYYYMMDD
	Started  time.Time
	Finished time.Time
	Jobs     int // jobs attempted
	Failed   int // jobs that produced Error rows
	Status   string
}

// RunRecorder keeps the fetch-run history.
type RunRecorder interface {
	// RecordRun appends one run entry.
	RecordRun(ctx context.Context, run Run) error

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}
