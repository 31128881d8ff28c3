// Package backup runs one full or incremental backup of a source tree into
// an encrypted archive under a target directory.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raoulx24/backup2zip/internal/archive"
	"github.com/raoulx24/backup2zip/internal/fs"
	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/logging"
	"github.com/raoulx24/backup2zip/internal/secret"
	"github.com/raoulx24/backup2zip/internal/walker"
)

var (
	// ErrPrecondition means the source or target is missing or not a directory.
	// Nothing has been written when it is returned.
	ErrPrecondition = errors.New("precondition failed")
	// ErrArchiveWrite is returned when the archive could not be written.
	ErrArchiveWrite = archive.ErrArchiveWrite
)

// Options describes one run.
type Options struct {
	Source  string
	Target  string
	Kind    history.Kind
	Exclude []string
}

// Result describes a finished run. Archive and PasswordFile are empty when no
// file qualified.
type Result struct {
	RunID        string        `json:"run_id"`
	Kind         history.Kind  `json:"kind"`
	Timestamp    int64         `json:"timestamp"`
	Threshold    int64         `json:"threshold"`
	Archive      string        `json:"archive,omitempty"`
	PasswordFile string        `json:"password_file,omitempty"`
	Scanned      int64         `json:"scanned"`
	Files        int64         `json:"files"`
	Bytes        int64         `json:"bytes"`
	Duration     time.Duration `json:"duration"`
}

// Runner executes backups. A Runner is used by one goroutine at a time.
type Runner struct {
	fs       fs.FS
	log      logging.Logger
	now      func() time.Time
	password func() (string, error)
}

// NewRunner creates a runner. A nil filesystem means the OS filesystem.
func NewRunner(log logging.Logger, filesystem fs.FS) *Runner {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Runner{
		fs:       filesystem,
		log:      log,
		now:      time.Now,
		password: secret.Generate,
	}
}

// Run performs one backup.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	res := Result{
		RunID: uuid.NewString(),
		Kind:  opts.Kind,
	}
	log := r.log.With("run", res.RunID, "kind", string(opts.Kind))

	if opts.Kind != history.Full && opts.Kind != history.Incremental {
		return res, fmt.Errorf("unknown backup kind %q", opts.Kind)
	}

	source, err := checkDir("source", opts.Source)
	if err != nil {
		return res, err
	}
	target, err := checkDir("target", opts.Target)
	if err != nil {
		return res, err
	}

	backupsDir := filepath.Join(target, history.BackupsDir)
	passwordsDir := filepath.Join(target, history.PasswordsDir)
	if err := r.fs.MkdirAll(backupsDir, 0o755); err != nil {
		return res, fmt.Errorf("creating backups dir: %w", err)
	}
	if err := r.fs.MkdirAll(passwordsDir, 0o700); err != nil {
		return res, fmt.Errorf("creating passwords dir: %w", err)
	}
	r.removeStalePartials(backupsDir, log)

	latest, hasHistory, err := history.NewResolver(target, log).Latest()
	if err != nil {
		return res, err
	}
	if opts.Kind == history.Incremental && hasHistory {
		res.Threshold = latest.Timestamp
	}

	// The run timestamp must sort after every existing archive even if the
	// clock stepped back, or the next run would resolve the wrong threshold.
	res.Timestamp = r.now().UnixMilli()
	if hasHistory && res.Timestamp <= latest.Timestamp {
		log.Warn("clock is behind latest backup, bumping run timestamp",
			"now", res.Timestamp, "latest", latest.Name)
		res.Timestamp = latest.Timestamp + 1
	}

	log.Info("starting backup", "source", source, "target", target,
		"threshold", res.Threshold, "timestamp", res.Timestamp)

	password, err := r.password()
	if err != nil {
		return res, err
	}

	archivePath := filepath.Join(backupsDir, history.Format(opts.Kind, res.Timestamp))
	zw, err := archive.Create(archivePath, archive.DefaultOptions(password), r.fs)
	if err != nil {
		return res, err
	}
	defer zw.Abort() //nolint:errcheck // no-op after a successful Close

	exclude := append([]string{backupsDir, passwordsDir}, opts.Exclude...)
	w := walker.New(source, walker.Options{FS: r.fs, Exclude: exclude, Log: log})

	stats, err := w.Walk(ctx, res.Threshold, zw)
	res.Scanned, res.Files, res.Bytes = stats.Scanned, stats.Files, stats.Bytes
	if err != nil {
		return res, fmt.Errorf("backup aborted: %w", err)
	}

	if stats.Files == 0 {
		res.Duration = time.Since(start)
		log.Info("no changed files, nothing archived", "scanned", stats.Scanned)
		return res, nil
	}

	if err := zw.Close(); err != nil {
		return res, err
	}

	pwPath := history.PasswordPath(target, res.Timestamp)
	if err := r.fs.WriteFile(ctx, pwPath, []byte(password+"\n"), 0o600); err != nil {
		// an archive without its password is worse than no archive
		if rmErr := r.fs.Remove(archivePath); rmErr != nil {
			log.Error("removing archive after password failure", "error", rmErr)
		}
		return res, fmt.Errorf("writing password file: %w", err)
	}

	res.Archive = archivePath
	res.PasswordFile = pwPath
	res.Duration = time.Since(start)

	log.Info("backup complete", "archive", archivePath, "files", stats.Files,
		"bytes", stats.Bytes, "duration", res.Duration)
	return res, nil
}

// checkDir resolves symlinks and verifies that path is a directory.
func checkDir(role, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: %s directory not set", ErrPrecondition, role)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q: %w", ErrPrecondition, role, path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q does not exist or is not a directory: %w", ErrPrecondition, role, path, err)
	}

	st, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q: %w", ErrPrecondition, role, path, err)
	}
	if !st.IsDir() {
		return "", fmt.Errorf("%w: %s %q is not a directory", ErrPrecondition, role, path)
	}
	return resolved, nil
}

// removeStalePartials deletes archives left behind by a crashed run.
func (r *Runner) removeStalePartials(dir string, log logging.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), archive.PartialSuffix) {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		if err := r.fs.Remove(path); err != nil {
			log.Warn("could not remove stale partial archive", "path", path, "error", err)
			continue
		}
		log.Warn("removed stale partial archive", "path", path)
	}
}
