// Daily snapshot tool: fetch the current status of every tracked
// ScanAndArchive job and write today's TSV snapshot files.
//
// Usage:
//
//	daily [-date YYYYMMDD] [-force]
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spectrabrainz/internal/config"
	"spectrabrainz/internal/snapshot"
	"spectrabrainz/internal/storcycle"
	"spectrabrainz/internal/store"
	"spectrabrainz/internal/util"
)

func main() {
	dateFlag := flag.String("date", "", "snapshot date as YYYYMMDD (default: today)")
	force := flag.Bool("force", false, "refetch even if today's snapshot exists")
	flag.Parse()

	cfgPath := "config/spectrabrainz.yaml"
	if p := os.Getenv("SPECTRABRAINZ_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	date := *dateFlag
	if date == "" {
		date = time.Now().Format("20060102")
	}
	if _, err := time.Parse("20060102", date); err != nil {
		log.Fatalf("invalid -date %q: want YYYYMMDD", date)
	}

	credsPath := cfg.API.CredentialsPath
	if credsPath == "" {
		credsPath = config.DefaultCredentialsPath()
	}
	creds, err := config.LoadCredentials(credsPath)
	if err != nil {
		log.Fatalf("failed to load credentials: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := storcycle.New(cfg.API, creds, logger)
	fetcher := snapshot.NewFetcher(client, cfg.Fetch, cfg.Report.DataDir, logger)

	started := time.Now()
	records, err := fetcher.Run(ctx, date, *force)
	if err != nil {
		if errors.Is(err, snapshot.ErrAllJobsFailed) {
			log.Fatalf("snapshot failed: %v", err)
		}
		log.Fatalf("fetch error: %v", err)
	}

	failed := 0
	for _, rec := range records {
		if rec.State == snapshot.StateError {
			failed++
		}
	}

	if cfg.Storage.ArchiveDir != "" {
		archive := store.NewParquetArchive(cfg.Storage.ArchiveDir)
		if err := archive.ArchiveDay(ctx, date, records); err != nil {
			log.Fatalf("archive error: %v", err)
		}
	}

	if cfg.Storage.RunLogPath != "" {
		recordRun(ctx, cfg.Storage.RunLogPath, date, started, len(records), failed, logger)
	}

	logger.Info("daily snapshot complete", "date", date, "jobs", len(records), "failed", failed)
}

// recordRun appends this run to the run log. A run-log failure is logged
// but does not fail an otherwise successful snapshot.
func recordRun(ctx context.Context, path, date string, started time.Time, jobs, failed int, logger *slog.Logger) {
	runLog, err := store.NewRunLog(path)
	if err != nil {
		logger.Error("opening run log", "error", err)
		return
	}
	defer runLog.Close()

	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	run := store.Run{
		Date:     date,
		Started:  started,
		Finished: time.Now(),
		Jobs:     jobs,
		Failed:   failed,
		Status:   status,
	}
	if err := runLog.RecordRun(ctx, run); err != nil {
		logger.Error("recording run", "error", err)
	}
}
