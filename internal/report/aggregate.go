// Package report aggregates daily snapshot TSVs into a single multi-sheet
// xlsx workbook: one sheet per date, rows in the fixed report sort order,
// state-based row colouring, and autosized columns.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"spectrabrainz/internal/snapshot"
)

// sheetColumns is the header row of every date sheet.
var sheetColumns = []string{"dataset", "backup", "job", "state", "percentComplete", "start", "completion", "totalFiles"}

// Aggregator builds or updates the report workbook from the daily TSV files
// in a directory.
type Aggregator struct {
	dataDir      string
	workbookPath string
	log          *slog.Logger
}

// NewAggregator creates an Aggregator reading dataDir and writing the named
// workbook inside it.
func NewAggregator(dataDir, workbookName string, log *slog.Logger) *Aggregator {
	return &Aggregator{
		dataDir:      dataDir,
		workbookPath: filepath.Join(dataDir, workbookName),
		log:          log.With("component", "aggregator"),
	}
}

// WorkbookPath returns the path of the output workbook.
func (a *Aggregator) WorkbookPath() string { return a.workbookPath }

// FindDailyFiles returns the full paths of daily snapshot files
// (YYYYMMDD.tsv) in dir, sorted by name and therefore by date.
func FindDailyFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !snapshot.IsDayFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run aggregates every daily file into the workbook. Sheets for dates that
// already exist are replaced wholesale; a malformed daily file is skipped
// with a warning. The workbook is persisted atomically, so a failed run
// never corrupts the previous artifact. An unreadable existing workbook is
// fatal.
func (a *Aggregator) Run(ctx context.Context) error {
	files, err := FindDailyFiles(a.dataDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		a.log.Warn("no daily snapshot files found", "dir", a.dataDir)
		return nil
	}

	f, fresh, err := a.openWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	// Keep a scratch sheet around during the rebuild: excelize refuses to
	// delete a workbook's only worksheet, which would otherwise block
	// replacing the sole date sheet.
	const scratchSheet = "_rebuild"
	if _, err := f.NewSheet(scratchSheet); err != nil {
		return fmt.Errorf("creating scratch sheet: %w", err)
	}

	styles := newStyleSet(f)
	written := 0

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		date := snapshot.DateFromFileName(path)
		records, err := snapshot.ReadDay(path)
		if err != nil {
			a.log.Warn("skipping malformed daily file", "path", path, "error", err)
			continue
		}
		snapshot.SortRecords(records)

		if err := a.writeSheet(f, styles, date, records); err != nil {
			return fmt.Errorf("writing sheet %s: %w", date, err)
		}
		written++
	}

	if written == 0 {
		a.log.Warn("no valid daily files, workbook unchanged")
		return nil
	}

	if err := f.DeleteSheet(scratchSheet); err != nil {
		return fmt.Errorf("removing scratch sheet: %w", err)
	}
	// A fresh workbook starts with a default sheet that is not a date.
	if fresh {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("removing default sheet: %w", err)
		}
	}

	if err := a.persist(f); err != nil {
		return err
	}

	a.log.Info("workbook updated", "path", a.workbookPath, "sheets", written)
	return nil
}

// openWorkbook opens the existing workbook or creates a fresh one. fresh
// reports which happened.
func (a *Aggregator) openWorkbook() (*excelize.File, bool, error) {
	if _, err := os.Stat(a.workbookPath); err != nil {
		if os.IsNotExist(err) {
			a.log.Info("creating new workbook", "path", a.workbookPath)
			return excelize.NewFile(), true, nil
		}
		return nil, false, fmt.Errorf("checking workbook: %w", err)
	}

	f, err := excelize.OpenFile(a.workbookPath)
	if err != nil {
		return nil, false, fmt.Errorf("opening workbook %s: %w", a.workbookPath, err)
	}
	a.log.Info("updating existing workbook", "path", a.workbookPath)
	return f, false, nil
}

// writeSheet replaces the sheet for one date with the given rows: header,
// sorted records, state fills, autosized columns. Deleting first guarantees
// no stale rows survive from a previous, larger snapshot.
func (a *Aggregator) writeSheet(f *excelize.File, styles *styleSet, date string, records []snapshot.JobRecord) error {
	if err := f.DeleteSheet(date); err != nil {
		return err
	}
	if _, err := f.NewSheet(date); err != nil {
		return err
	}

	widths := make([]int, len(sheetColumns))
	for col, name := range sheetColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(date, cell, name); err != nil {
			return err
		}
		widths[col] = len(name)
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.Dataset,
			rec.BackupIndex,
			rec.Job,
			rec.State,
			rec.PercentComplete,
			rec.Start,
			rec.Completion,
			rec.TotalFiles,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(date, cell, v); err != nil {
				return err
			}
			if n := len(fmt.Sprint(v)); n > widths[col] {
				widths[col] = n
			}
		}

		styleID, ok, err := styles.idFor(rec.State)
		if err != nil {
			return err
		}
		if ok {
			first, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			last, err := excelize.CoordinatesToCellName(len(values), row)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(date, first, last, styleID); err != nil {
				return err
			}
		}
	}

	for col, w := range widths {
		letter, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(date, letter, letter, float64(w+2)); err != nil {
			return err
		}
	}

	return nil
}

// persist saves the workbook to a temporary sibling and renames it into
// place.
func (a *Aggregator) persist(f *excelize.File) error {
	tmp := fmt.Sprintf("%s.tmp-%d.xlsx", a.workbookPath, os.Getpid())
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := os.Rename(tmp, a.workbookPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing workbook: %w", err)
	}
	return nil
}
