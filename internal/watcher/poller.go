package watcher

import (
	"context"
	"time"
)

// StartPolling triggers detect() on a fixed interval. Interval changes from
// a reload apply from the next tick.
func (w *Watcher) StartPolling(ctx context.Context) {
	w.mu.RLock()
	interval := w.interval
	w.mu.RUnlock()

	w.log.Info("polling source", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.detect(ctx)

			w.mu.RLock()
			next := w.interval
			w.mu.RUnlock()
			if next != interval && next > 0 {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}
