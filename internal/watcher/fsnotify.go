package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StartFsNotify watches every directory below the source root and calls
// detect() once events have been quiet for the debounce window. No check
// runs after it returns.
func (w *Watcher) StartFsNotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	w.mu.RLock()
	dir := w.dir
	debounce := w.debounce
	w.mu.RUnlock()

	if err := w.addTree(watcher, dir); err != nil {
		return err
	}
	w.log.Info("watching source with fsnotify", "dir", dir, "directories", len(watcher.WatchList()))

	// Debounce timer; detect runs on this goroutine, so nothing fires after return.
	debounceTimer := time.NewTimer(debounce)
	debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			debounceTimer.Stop()
			return nil

		case <-debounceTimer.C:
			w.detect(ctx)

		case ev, ok := <-watcher.Events:
			if !ok {
				w.log.Error("events channel closed")
				return nil
			}

			if w.excluded(ev.Name) {
				continue
			}
			w.log.Debug("event", "name", ev.Name, "op", ev.Op.String())

			if ev.Has(fsnotify.Create) {
				// new directories are not covered by the existing watches
				if err := w.addTree(watcher, ev.Name); err != nil {
					w.log.Warn("cannot watch new directory", "path", ev.Name, "error", err)
				}
			}

			debounceTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("fsnotify error", "error", err)
		}
	}
}

// addTree adds root and every directory below it. Symlinks are not followed
// and excluded paths are skipped. A root that is not a directory is ignored.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.log.Warn("cannot read directory", "path", path, "error", err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.excluded(path) {
			return fs.SkipDir
		}
		return watcher.Add(path)
	})
}

// excluded reports whether path lies in an excluded directory. Relative
// exclude entries are resolved against the source root.
func (w *Watcher) excluded(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ex := range w.exclude {
		if !filepath.IsAbs(ex) {
			ex = filepath.Join(w.dir, ex)
		}
		ex = filepath.Clean(ex)
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
