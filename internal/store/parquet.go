package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"spectrabrainz/internal/snapshot"
)

// Compile-time interface check.
var _ Archiver = (*ParquetArchive)(nil)

// ParquetArchive stores one Parquet file of raw job records per snapshot
// date, at <ArchiveDir>/<YYYYMMDD>.parquet.
type ParquetArchive struct {
	ArchiveDir string
}

// NewParquetArchive creates an archive rooted at the given directory.
func NewParquetArchive(archiveDir string) *ParquetArchive {
	return &ParquetArchive{ArchiveDir: archiveDir}
}

// archiveRecord is the Parquet schema for archived job records.
type archiveRecord struct {
	Dataset         string  `parquet:"dataset"`
	BackupIndex     int32   `parquet:"backup_index"`
	Job             string  `parquet:"job"`
	State           string  `parquet:"state"`
	PercentComplete float64 `parquet:"percent_complete"`
	Start           string  `parquet:"start"`
	Completion      string  `parquet:"completion"`
	TotalFiles      int64   `parquet:"total_files"`
}

func (a *ParquetArchive) dayPath(date string) string {
	return filepath.Join(a.ArchiveDir, date+".parquet")
}

// ArchiveDay writes the day's records, overwriting any previous archive for
// the date.
func (a *ParquetArchive) ArchiveDay(_ context.Context, date string, records []snapshot.JobRecord) error {
	if err := os.MkdirAll(a.ArchiveDir, 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}

	rows := make([]archiveRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, archiveRecord{
			Dataset:         r.Dataset,
			BackupIndex:     int32(r.BackupIndex),
			Job:             r.Job,
			State:           r.State,
			PercentComplete: r.PercentComplete,
			Start:           r.Start,
			Completion:      r.Completion,
			TotalFiles:      r.TotalFiles,
		})
	}

	path := a.dayPath(date)
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	return nil
}

// ReadDay returns the archived records for a date.
func (a *ParquetArchive) ReadDay(_ context.Context, date string) ([]snapshot.JobRecord, error) {
	path := a.dayPath(date)
	rows, err := parquet.ReadFile[archiveRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}

	records := make([]snapshot.JobRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, snapshot.JobRecord{
			Dataset:         r.Dataset,
			BackupIndex:     int(r.BackupIndex),
			Job:             r.Job,
			State:           r.State,
			PercentComplete: r.PercentComplete,
			Start:           r.Start,
			Completion:      r.Completion,
			TotalFiles:      r.TotalFiles,
		})
	}
	return records, nil
}
