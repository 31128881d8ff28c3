// Package watcher monitors the source tree and posts incremental backup jobs
// when files change.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raoulx24/backup2zip/internal/config"
	"github.com/raoulx24/backup2zip/internal/fsprobe"
	"github.com/raoulx24/backup2zip/internal/logging"
	"github.com/raoulx24/backup2zip/internal/mailbox"
	"github.com/raoulx24/backup2zip/internal/worker"
)

// Watcher observes the source tree and enqueues incremental backups.
type Watcher struct {
	mu sync.RWMutex

	dir      string
	exclude  []string
	target   string
	interval time.Duration
	mode     string
	debounce time.Duration

	log logging.Logger
	now func() time.Time

	mb *mailbox.Mailbox[worker.Job]
}

// New creates a watcher from the daemon configuration.
func New(cfg config.Config, log logging.Logger, mb *mailbox.Mailbox[worker.Job]) *Watcher {
	w := &Watcher{
		log: log,
		now: time.Now,
		mb:  mb,
	}
	w.UpdateConfig(cfg)
	return w
}

// Start chooses the watching strategy based on config and blocks until ctx
// is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	dir := w.dir
	w.mu.RUnlock()

	switch mode {
	case config.WatchOff:
		w.log.Info("source watching disabled")
		<-ctx.Done()
		return nil

	case config.WatchFsnotify:
		return w.StartFsNotify(ctx)

	case config.WatchPoll:
		w.StartPolling(ctx)
		return nil

	case config.WatchAuto:
		res := fsprobe.Probe(dir)
		if res.FsnotifySupported {
			w.log.Info("fsnotify works on source, using it")
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled, falling back to polling", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown watch mode %q", mode)
	}
}
