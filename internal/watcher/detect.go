package watcher

import (
	"context"

	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/walker"
)

// detect enqueues an incremental job if any source file is newer than the
// latest archive. It does nothing while a job is already pending.
func (w *Watcher) detect(ctx context.Context) {
	if w.mb.HasJob() {
		w.log.Debug("watcher: job already pending, skipping check")
		return
	}

	w.mu.RLock()
	dir := w.dir
	target := w.target
	exclude := w.exclude
	w.mu.RUnlock()

	threshold, err := history.NewResolver(target, w.log).Threshold()
	if err != nil {
		w.log.Error("watcher: resolving history failed", "error", err)
		return
	}

	changed, err := walker.New(dir, walker.Options{Exclude: exclude, Log: w.log}).AnyChanged(ctx, threshold)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error("watcher: scanning source failed", "dir", dir, "error", err)
		}
		return
	}
	if !changed {
		w.log.Debug("watcher: no changes since latest archive", "threshold", threshold)
		return
	}

	w.enqueue("changed files since latest archive")
}
