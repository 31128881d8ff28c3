package worker

import (
	"time"

	"github.com/raoulx24/backup2zip/internal/history"
)

// Job asks the worker for one backup run.
type Job struct {
	Kind    history.Kind
	Trigger string // "schedule" or "watch"
	Queued  time.Time
}

// PreferFull merges a new job into a pending one. A pending full run is never
// downgraded to an incremental one, since the full run covers it.
func PreferFull(pending, incoming Job) Job {
	if pending.Kind == history.Full && incoming.Kind != history.Full {
		return pending
	}
	return incoming
}
