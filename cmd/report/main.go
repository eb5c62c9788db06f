// Report tool: aggregate all daily snapshot TSVs into the multi-sheet
// workbook, then optionally push it to remote storage via rclone.
//
// Usage:
//
//	report [-dir DATA_DIR] [-upload] [-backup]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"spectrabrainz/internal/config"
	"spectrabrainz/internal/report"
	"spectrabrainz/internal/transfer"
	"spectrabrainz/internal/util"
)

func main() {
	dirFlag := flag.String("dir", "", "directory holding the daily TSV files (default: report.data_dir)")
	upload := flag.Bool("upload", false, "upload the workbook via rclone after aggregation")
	backup := flag.Bool("backup", false, "back up the daily TSV files via rclone")
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

	dataDir := cfg.Report.DataDir
	if *dirFlag != "" {
		dataDir = *dirFlag
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	agg := report.NewAggregator(dataDir, cfg.Report.WorkbookName, logger)
	if err := agg.Run(ctx); err != nil {
		log.Fatalf("aggregation error: %v", err)
	}

	doUpload := *upload || cfg.Transfer.Enabled
	if !doUpload && !*backup {
		return
	}

	rclone := transfer.NewRclone("", logger)

	if doUpload {
		if cfg.Transfer.RemotePath == "" {
			log.Fatalf("transfer.remote_path is not configured")
		}
		if err := rclone.Upload(ctx, agg.WorkbookPath(), cfg.Transfer.RemotePath); err != nil {
			log.Fatalf("upload error: %v", err)
		}
	}

	if *backup {
		if cfg.Transfer.BackupPath == "" {
			log.Fatalf("transfer.backup_path is not configured")
		}
		if err := rclone.BackupDaily(ctx, dataDir, cfg.Transfer.BackupPath); err != nil {
			log.Fatalf("backup error: %v", err)
		}
	}
}
