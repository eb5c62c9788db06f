package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// Column layout of the daily files. The full snapshot and the reduced
// status view share the daily date naming scheme.
var (
	fullHeader   = []string{"dataset", "backup", "job", "state", "percentComplete", "start", "completion", "totalFiles"}
	statusHeader = []string{"dataset", "job", "state", "start", "completion"}
)

// dailyFilePattern matches full daily snapshot filenames.
var dailyFilePattern = regexp.MustCompile(`^\d{8}\.tsv$`)

// DayFileName returns the full snapshot filename for a YYYYMMDD date.
func DayFileName(date string) string { return date + ".tsv" }

// StatusFileName returns the status-subset filename for a YYYYMMDD date.
func StatusFileName(date string) string { return "status-" + date + ".tsv" }

// IsDayFile reports whether name looks like a daily snapshot file.
func IsDayFile(name string) bool { return dailyFilePattern.MatchString(name) }

// DateFromFileName extracts the YYYYMMDD date from a daily snapshot
// filename.
func DateFromFileName(name string) string {
	base := filepath.Base(name)
	if !IsDayFile(base) {
		return ""
	}
	return base[:8]
}

// WriteDay writes the full snapshot TSV, replacing any existing file.
func WriteDay(path string, records []JobRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, fullHeader)
	for _, r := range records {
		rows = append(rows, []string{
			r.Dataset,
			strconv.Itoa(r.BackupIndex),
			r.Job,
			r.State,
			strconv.FormatFloat(r.PercentComplete, 'f', -1, 64),
			r.Start,
			r.Completion,
			strconv.FormatInt(r.TotalFiles, 10),
		})
	}
	return writeTSV(path, rows)
}

// WriteStatusSubset writes the reduced status TSV, replacing any existing
// file.
func WriteStatusSubset(path string, records []JobRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, statusHeader)
	for _, r := range records {
		rows = append(rows, []string{r.Dataset, r.Job, r.State, r.Start, r.Completion})
	}
	return writeTSV(path, rows)
}

func writeTSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// ReadDay parses a full daily snapshot TSV back into records. A missing or
// reordered header, or a row with the wrong column count, is an error; the
// caller decides whether that is fatal.
func ReadDay(path string) ([]JobRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty file, missing header", path)
	}
	if len(rows[0]) != len(fullHeader) {
		return nil, fmt.Errorf("%s: header has %d columns, want %d", path, len(rows[0]), len(fullHeader))
	}
	for i, col := range fullHeader {
		if rows[0][i] != col {
			return nil, fmt.Errorf("%s: header column %d is %q, want %q", path, i, rows[0][i], col)
		}
	}

	records := make([]JobRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		backup, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad backup index %q", path, i+2, row[1])
		}
		pct, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad percentComplete %q", path, i+2, row[4])
		}
		files, err := strconv.ParseInt(row[7], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad totalFiles %q", path, i+2, row[7])
		}
		records = append(records, JobRecord{
			Dataset:         row[0],
			BackupIndex:     backup,
			Job:             row[2],
			State:           row[3],
			PercentComplete: pct,
			Start:           row[5],
			Completion:      row[6],
			TotalFiles:      files,
		})
	}
	return records, nil
}
