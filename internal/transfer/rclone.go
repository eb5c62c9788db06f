// Package transfer invokes the external rclone binary to push the workbook
// to remote storage and back up daily snapshot files. rclone's exit code is
// the pipeline's failure signal; its internals are not modelled here.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Rclone wraps rclone subprocess invocations.
type Rclone struct {
	binary string
	log    *slog.Logger
}

// NewRclone creates an Rclone runner. An empty binary defaults to "rclone"
// resolved from PATH.
func NewRclone(binary string, log *slog.Logger) *Rclone {
	if binary == "" {
		binary = "rclone"
	}
	return &Rclone{binary: binary, log: log.With("component", "transfer")}
}

// uploadArgs builds the argument list for copying one file to a remote.
func uploadArgs(localPath, remotePath string) []string {
	return []string{"copy", localPath, remotePath, "--progress"}
}

// backupArgs builds the argument list for copying the daily TSV files from
// dir to a backup destination.
func backupArgs(dir, backupPath string) []string {
	return []string{"copy", dir, backupPath, "--include", "*.tsv", "--progress"}
}

// Upload copies localPath to remotePath.
func (r *Rclone) Upload(ctx context.Context, localPath, remotePath string) error {
	r.log.Info("uploading", "path", localPath, "remote", remotePath)
	return r.run(ctx, uploadArgs(localPath, remotePath))
}

// BackupDaily copies the daily TSV files under dir to backupPath.
func (r *Rclone) BackupDaily(ctx context.Context, dir, backupPath string) error {
	r.log.Info("backing up daily files", "dir", dir, "dest", backupPath)
	return r.run(ctx, backupArgs(dir, backupPath))
}

func (r *Rclone) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("rclone %s failed: %w", args[0], err)
	}
	return nil
}
