// Package retention prunes old backup chains from a target directory.
//
// A chain is a full archive plus the incremental archives that follow it up
// to the next full one. Chains are always deleted whole, so every kept
// incremental still has the full archive it builds on.
package retention

import (
	"context"
	"sync"

	"github.com/raoulx24/backup2zip/internal/config"
	"github.com/raoulx24/backup2zip/internal/fs"
	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/logging"
)

type Engine struct {
	mu        sync.RWMutex
	keepFulls int
	fs        fs.FS
	log       logging.Logger
}

func New(cfg config.RetentionConfig, log logging.Logger, filesystem fs.FS) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Engine{
		keepFulls: cfg.KeepFulls,
		fs:        filesystem,
		log:       log,
	}
}

// UpdateConfig hot-reloads the retention policy.
func (e *Engine) UpdateConfig(cfg config.RetentionConfig) {
	e.mu.Lock()
	e.keepFulls = cfg.KeepFulls
	e.mu.Unlock()
}

// Apply deletes every archive older than the newest keepFulls full archives,
// together with its password file. It returns the deleted archives.
// Individual delete failures are logged and do not stop the pass.
func (e *Engine) Apply(ctx context.Context, target string) ([]history.Archive, error) {
	e.mu.RLock()
	keep := e.keepFulls
	e.mu.RUnlock()

	if keep <= 0 {
		return nil, nil
	}

	archives, err := history.NewResolver(target, e.log).Scan()
	if err != nil {
		return nil, err
	}

	var deleted []history.Archive
	for _, a := range expired(archives, keep) {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		if err := e.fs.Remove(a.Path); err != nil {
			e.log.Error("retention: removing archive failed", "archive", a.Name, "error", err)
			continue
		}
		if err := e.fs.Remove(history.PasswordPath(target, a.Timestamp)); err != nil {
			e.log.Error("retention: removing password file failed", "archive", a.Name, "error", err)
		}

		e.log.Info("retention: removed archive", "archive", a.Name)
		deleted = append(deleted, a)
	}

	return deleted, nil
}

// expired returns the archives (sorted oldest first) that precede the
// keep-th newest full archive.
func expired(archives []history.Archive, keep int) []history.Archive {
	seen := 0
	for i := len(archives) - 1; i >= 0; i-- {
		if archives[i].Kind != history.Full {
			continue
		}
		seen++
		if seen == keep {
			return archives[:i]
		}
	}
	return nil
}
