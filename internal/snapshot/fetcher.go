package snapshot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"spectrabrainz/internal/config"
	"spectrabrainz/internal/storcycle"
)

// ErrAllJobsFailed is returned when every per-job status fetch failed. A
// subset of failures is tolerated and recorded inline as Error rows.
var ErrAllJobsFailed = errors.New("all job status fetches failed")

// StatusAPI is the slice of the StorCycle client the fetcher needs.
type StatusAPI interface {
	ListJobStatus(ctx context.Context, includeAll bool) ([]storcycle.JobStatusEntry, error)
	GetJobStatus(ctx context.Context, job string) (*storcycle.JobStatusEntry, error)
}

// Fetcher produces the daily snapshot files for one date.
type Fetcher struct {
	api        StatusAPI
	dataDir    string
	maxWorkers int
	includeAll bool
	jobsFile   string
	log        *slog.Logger
}

// NewFetcher creates a Fetcher writing into dataDir.
func NewFetcher(api StatusAPI, cfg config.Fetch, dataDir string, log *slog.Logger) *Fetcher {
	return &Fetcher{
		api:        api,
		dataDir:    dataDir,
		maxWorkers: cfg.MaxWorkers,
		includeAll: cfg.IncludeAll,
		jobsFile:   cfg.JobsFile,
		log:        log.With("component", "fetcher"),
	}
}

// Run fetches the snapshot for the given YYYYMMDD date and writes both the
// full TSV and the status subset. If the day's full TSV already exists the
// fetch is skipped and the file is reused, unless force is set. The
// returned records are in report sort order.
func (f *Fetcher) Run(ctx context.Context, date string, force bool) ([]JobRecord, error) {
	fullPath := filepath.Join(f.dataDir, DayFileName(date))
	statusPath := filepath.Join(f.dataDir, StatusFileName(date))

	if !force {
		if _, err := os.Stat(fullPath); err == nil {
			f.log.Info("snapshot already exists, reusing", "date", date, "path", fullPath)
			records, err := ReadDay(fullPath)
			if err != nil {
				return nil, fmt.Errorf("reading existing snapshot: %w", err)
			}
			// The status subset is derived, keep it in step with the full file.
			if err := WriteStatusSubset(statusPath, records); err != nil {
				return nil, err
			}
			return records, nil
		}
	}

	jobs, err := f.discoverJobs(ctx)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		f.log.Warn("no jobs to snapshot", "date", date)
	}

	records, failed, err := f.fetchAll(ctx, jobs)
	if err != nil {
		return nil, err
	}
	if len(jobs) > 0 && failed == len(jobs) {
		return nil, ErrAllJobsFailed
	}

	SortRecords(records)

	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if err := WriteDay(fullPath, records); err != nil {
		return nil, err
	}
	if err := WriteStatusSubset(statusPath, records); err != nil {
		return nil, err
	}

	f.log.Info("snapshot written",
		"date", date,
		"jobs", len(jobs),
		"failed", failed,
		"path", fullPath,
	)
	return records, nil
}

// discoverJobs returns the job names to snapshot: the jobs file when
// configured, otherwise the latest backup job per dataset from the full
// listing.
func (f *Fetcher) discoverJobs(ctx context.Context) ([]string, error) {
	if f.jobsFile != "" {
		return readJobsFile(f.jobsFile)
	}

	entries, err := f.api.ListJobStatus(ctx, f.includeAll)
	if err != nil {
		return nil, fmt.Errorf("discovering jobs: %w", err)
	}

	reduced := ReduceLatest(entries)
	jobs := make([]string, 0, len(reduced))
	for _, rec := range reduced {
		jobs = append(jobs, rec.Job)
	}
	return jobs, nil
}

// fetchAll refreshes every job's status across a bounded worker pool.
// Results are placed by input index so output order never depends on
// completion order. A failed job produces an Error row, not a gap.
func (f *Fetcher) fetchAll(ctx context.Context, jobs []string) ([]JobRecord, int, error) {
	records := make([]JobRecord, len(jobs))
	var failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxWorkers)

	for i, job := range jobs {
		g.Go(func() error {
			entry, err := f.api.GetJobStatus(ctx, job)
			if err != nil {
				f.log.Error("job status fetch failed", "job", job, "error", err)
				failed.Add(1)
				records[i] = errorRecord(job)
				return nil
			}
			records[i] = RecordFromEntry(entry)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return records, int(failed.Load()), nil
}

// errorRecord builds the inline placeholder row for a job whose fetch
// failed after retries.
func errorRecord(job string) JobRecord {
	rec := JobRecord{Job: job, State: StateError}
	if dataset, backup, ok := SplitJobName(job); ok {
		rec.Dataset = dataset
		rec.BackupIndex = backup
	} else {
		rec.Dataset = job
	}
	return rec
}

// readJobsFile reads one job name per line, skipping blanks and comments.
func readJobsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening jobs file: %w", err)
	}
	defer f.Close()

	var jobs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		jobs = append(jobs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading jobs file: %w", err)
	}
	return jobs, nil
}
