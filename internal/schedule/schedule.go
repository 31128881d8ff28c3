// Package schedule turns cron expressions into backup jobs.
package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/backup2zip/internal/config"
	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/logging"
	"github.com/raoulx24/backup2zip/internal/mailbox"
	"github.com/raoulx24/backup2zip/internal/worker"
)

// Scheduler posts full and incremental jobs to the worker mailbox on cron
// schedules. It never runs backups itself.
type Scheduler struct {
	mu   sync.Mutex
	cron *cron.Cron
	ids  []cron.EntryID
	mb   *mailbox.Mailbox[worker.Job]
	log  logging.Logger
	now  func() time.Time
}

// New creates a scheduler and registers the configured schedules.
func New(cfg config.ScheduleConfig, mb *mailbox.Mailbox[worker.Job], log logging.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithLogger(cronLogger{log})),
		mb:   mb,
		log:  log,
		now:  time.Now,
	}
	if err := s.UpdateConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Info("starting scheduler")
	s.cron.Start()
}

// Stop stops the cron loop. Jobs already posted stay in the mailbox.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// UpdateConfig replaces all schedules. On error the previous schedules
// stay active.
func (s *Scheduler) UpdateConfig(cfg config.ScheduleConfig) error {
	type entry struct {
		kind history.Kind
		expr string
	}
	var parsed []cron.Schedule
	var kinds []history.Kind
	for _, e := range []entry{{history.Full, cfg.Full}, {history.Incremental, cfg.Incremental}} {
		if e.expr == "" {
			continue
		}
		sched, err := cron.ParseStandard(e.expr)
		if err != nil {
			return fmt.Errorf("parsing %s schedule %q: %w", e.kind, e.expr, err)
		}
		parsed = append(parsed, sched)
		kinds = append(kinds, e.kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.ids {
		s.cron.Remove(id)
	}
	s.ids = s.ids[:0]
	for i, sched := range parsed {
		s.ids = append(s.ids, s.cron.Schedule(sched, s.enqueue(kinds[i])))
		s.log.Info("scheduled backup", "kind", string(kinds[i]))
	}
	return nil
}

// Entries returns the number of active schedules.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Scheduler) enqueue(kind history.Kind) cron.FuncJob {
	return func() {
		s.log.Debug("schedule fired", "kind", string(kind))
		s.mb.Merge(worker.Job{Kind: kind, Trigger: "schedule", Queued: s.now()}, worker.PreferFull)
	}
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kv, "error", err)...)
}
