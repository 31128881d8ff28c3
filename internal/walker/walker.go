// Package walker traverses a source tree and selects the files an
// incremental backup has to include.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"path/filepath"
	"time"

	bfs "github.com/raoulx24/backup2zip/internal/fs"
	"github.com/raoulx24/backup2zip/internal/logging"
)

// FileRecord is one regular file found under the root.
// Rel is slash-separated and relative to the root.
type FileRecord struct {
	bfs.FileInfo
	Rel string
}

// Adder receives the files selected for the archive.
type Adder interface {
	AddFile(src, name string) error
}

// Stats summarises one walk.
type Stats struct {
	Scanned int64
	Files   int64
	Bytes   int64
}

type Options struct {
	// FS reads file attributes. Nil means the OS filesystem.
	FS bfs.FS
	// Exclude lists directories skipped entirely, absolute or relative to the root.
	Exclude []string
	Log     logging.Logger
}

// Walker traverses one source root.
type Walker struct {
	root    string
	fs      bfs.FS
	log     logging.Logger
	exclude map[string]bool
}

func New(root string, opts Options) *Walker {
	root = filepath.Clean(root)
	if opts.FS == nil {
		opts.FS = bfs.New()
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}

	exclude := make(map[string]bool, len(opts.Exclude))
	for _, p := range opts.Exclude {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		exclude[filepath.Clean(p)] = true
	}

	return &Walker{
		root:    root,
		fs:      opts.FS,
		log:     opts.Log,
		exclude: exclude,
	}
}

// Changed reports whether a file was created or modified strictly after the
// threshold (milliseconds since epoch). Either timestamp is enough. File times
// are compared at full precision, so a change a fraction of a millisecond after
// the threshold still counts. A threshold of 0 or less includes every file,
// whatever its timestamps.
func Changed(rec FileRecord, threshold int64) bool {
	if threshold <= 0 {
		return true
	}
	t := time.UnixMilli(threshold)
	return rec.BirthTime.After(t) || rec.MTime.After(t)
}

// Files lazily yields every regular file under the root, depth first.
// Symbolic links and special files are skipped and never followed.
// A traversal or attribute error is yielded once and ends the sequence.
func (w *Walker) Files() iter.Seq2[FileRecord, error] {
	return func(yield func(FileRecord, error) bool) {
		err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if path != w.root && w.exclude[path] {
					w.log.Debug("skipping excluded directory", "path", path)
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				w.log.Debug("skipping non-regular file", "path", path, "type", d.Type().String())
				return nil
			}

			info, err := w.fs.Stat(path)
			if err != nil {
				return fmt.Errorf("reading attributes of %s: %w", path, err)
			}

			rel, err := filepath.Rel(w.root, path)
			if err != nil {
				return err
			}

			if !yield(FileRecord{FileInfo: info, Rel: filepath.ToSlash(rel)}, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(FileRecord{}, err)
		}
	}
}

// Walk adds every file changed after threshold to dst, each exactly once.
// Any attribute or archive error aborts the walk.
func (w *Walker) Walk(ctx context.Context, threshold int64, dst Adder) (Stats, error) {
	var st Stats

	for rec, err := range w.Files() {
		if err != nil {
			return st, err
		}
		if err := ctx.Err(); err != nil {
			return st, err
		}

		st.Scanned++
		if !Changed(rec, threshold) {
			continue
		}

		w.log.Debug("archiving", "path", rec.Rel, "size", rec.Size)
		if err := dst.AddFile(rec.Path, rec.Rel); err != nil {
			return st, fmt.Errorf("adding %s: %w", rec.Rel, err)
		}
		st.Files++
		st.Bytes += rec.Size

		w.checkStable(rec)
	}

	return st, nil
}

// AnyChanged reports whether at least one file changed after threshold.
// It stops at the first hit.
func (w *Walker) AnyChanged(ctx context.Context, threshold int64) (bool, error) {
	for rec, err := range w.Files() {
		if err != nil {
			return false, err
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if Changed(rec, threshold) {
			return true, nil
		}
	}
	return false, nil
}

// checkStable warns when a file changed while it was being archived.
// The next incremental run includes it again since its mtime is newer than this run.
func (w *Walker) checkStable(rec FileRecord) {
	now, err := w.fs.Stat(rec.Path)
	if err != nil {
		w.log.Warn("file vanished while archiving", "path", rec.Rel, "error", err)
		return
	}
	if bfs.Changed(rec.FileInfo, now) {
		w.log.Warn("file changed while archiving", "path", rec.Rel)
	}
}
