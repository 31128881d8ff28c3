package watcher

import (
	"path/filepath"

	"github.com/raoulx24/backup2zip/internal/config"
	"github.com/raoulx24/backup2zip/internal/history"
)

// UpdateConfig updates watcher fields atomically for hot-reload.
// A changed mode takes effect after the watcher is restarted.
func (w *Watcher) UpdateConfig(cfg config.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()

	target := cfg.Destination.Root
	exclude := append([]string(nil), cfg.Source.Exclude...)
	if target != "" {
		// archives and password files written by the worker are changes too
		exclude = append(exclude,
			filepath.Join(target, history.BackupsDir),
			filepath.Join(target, history.PasswordsDir))
	}

	w.dir = cfg.Source.Path
	w.exclude = exclude
	w.target = target
	w.interval = cfg.Source.Watch.PollInterval
	w.mode = cfg.Source.Watch.Mode
	w.debounce = cfg.Source.Watch.DebounceWindow
}
