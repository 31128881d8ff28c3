package watcher

import (
	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/worker"
)

// enqueue posts an incremental job. A pending full job is kept.
func (w *Watcher) enqueue(reason string) {
	w.mb.Merge(worker.Job{
		Kind:    history.Incremental,
		Trigger: "watch",
		Queued:  w.now(),
	}, worker.PreferFull)
	w.log.Info("watcher: queued incremental backup", "reason", reason)
}
