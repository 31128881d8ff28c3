// Package worker executes queued backup jobs one at a time and applies
// retention after every successful run.
package worker

import (
	"context"
	"sync"

	"github.com/raoulx24/backup2zip/internal/backup"
	"github.com/raoulx24/backup2zip/internal/config"
	"github.com/raoulx24/backup2zip/internal/logging"
	"github.com/raoulx24/backup2zip/internal/mailbox"
	"github.com/raoulx24/backup2zip/internal/metrics"
	"github.com/raoulx24/backup2zip/internal/retention"
)

// Worker runs backups from its mailbox, applies retention and exports metrics.
type Worker struct {
	mu        sync.RWMutex
	cfg       config.Config
	runner    *backup.Runner
	retention *retention.Engine
	metrics   *metrics.Metrics
	log       logging.Logger
	mb        *mailbox.Mailbox[Job]
}

// New creates a worker. m may be nil to disable metrics.
func New(cfg config.Config, log logging.Logger, runner *backup.Runner, r *retention.Engine, m *metrics.Metrics, mb *mailbox.Mailbox[Job]) *Worker {
	log.Debug("creating worker")
	return &Worker{
		cfg:       cfg,
		runner:    runner,
		retention: r,
		metrics:   m,
		log:       log,
		mb:        mb,
	}
}

// Start runs the worker loop until ctx is canceled.
// A job already running when ctx is canceled is aborted through ctx.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("starting worker")

	stop := context.AfterFunc(ctx, w.mb.Close)
	defer stop()

	for {
		job, ok := w.mb.Take()
		if !ok || ctx.Err() != nil {
			w.log.Info("worker stopped")
			return
		}
		if _, err := w.Handle(ctx, job); err != nil {
			w.log.Error("worker: backup failed", "kind", string(job.Kind), "trigger", job.Trigger, "error", err)
		}
	}
}

// Handle runs one backup, then retention and metrics export.
// Retention and metrics failures are logged and do not fail the job.
func (w *Worker) Handle(ctx context.Context, job Job) (backup.Result, error) {
	w.mu.RLock()
	cfg := w.cfg
	w.mu.RUnlock()

	log := w.log.With("trigger", job.Trigger)
	log.Debug("handling job", "kind", string(job.Kind), "queued", job.Queued)

	res, err := w.runner.Run(ctx, backup.Options{
		Source:  cfg.Source.Path,
		Target:  cfg.Destination.Root,
		Kind:    job.Kind,
		Exclude: cfg.Source.Exclude,
	})

	if w.metrics != nil {
		w.metrics.Observe(string(job.Kind), res.Files, res.Bytes, res.Duration, err)
		if werr := w.metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			log.Error("worker: writing metrics textfile failed", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}
	if err != nil {
		return res, err
	}

	if res.Archive != "" {
		if _, rerr := w.retention.Apply(ctx, cfg.Destination.Root); rerr != nil {
			log.Error("worker: retention failed", "error", rerr)
		}
	}

	return res, nil
}

// UpdateConfig hot-reloads source, destination and metrics settings.
func (w *Worker) UpdateConfig(cfg config.Config) {
	w.log.Debug("entering Worker.UpdateConfig()")
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()

	w.retention.UpdateConfig(cfg.Destination.Retention)
}
