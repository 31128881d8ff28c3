package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raoulx24/backup2zip/internal/backup"
	"github.com/raoulx24/backup2zip/internal/config"
	"github.com/raoulx24/backup2zip/internal/fs"
	"github.com/raoulx24/backup2zip/internal/logging"
	"github.com/raoulx24/backup2zip/internal/mailbox"
	"github.com/raoulx24/backup2zip/internal/metrics"
	"github.com/raoulx24/backup2zip/internal/retention"
	"github.com/raoulx24/backup2zip/internal/schedule"
	"github.com/raoulx24/backup2zip/internal/watcher"
	"github.com/raoulx24/backup2zip/internal/worker"
)

// daemonCmd runs scheduled and change-triggered backups until interrupted.
func daemonCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled backups from a config file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	return cmd
}

func runDaemon(ctx context.Context, configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logger
	z, err := logging.Build(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer z.Sync() //nolint:errcheck
	logg := logging.New(z)

	filesystem := fs.New()

	// Mailbox for backup jobs
	mb := mailbox.New[worker.Job]()

	ret := retention.New(cfg.Destination.Retention, logg, filesystem)
	w := worker.New(*cfg, logg, backup.NewRunner(logg, filesystem), ret, metrics.New(), mb)

	sched, err := schedule.New(cfg.Schedule, mb, logg)
	if err != nil {
		return err
	}

	// Watcher (detects source changes and pushes into mailbox)
	watch := watcher.New(*cfg, logg, mb)

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start worker loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()

	// Start watcher loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := watch.Start(ctx); err != nil {
			logg.Error("watcher stopped", "error", err)
		}
	}()

	sched.Start()

	// Hot reload on SIGHUP
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	logg.Info("daemon started", "source", cfg.Source.Path, "target", cfg.Destination.Root)
	for {
		select {
		case <-ctx.Done():
			logg.Info("shutting down...")
			sched.Stop()
			cancel()
			wg.Wait()
			logg.Info("exit complete")
			return nil

		case <-hup:
			reload(configPath, logg, w, sched, watch)
		}
	}
}

// reload applies a new config file. An invalid file keeps the running config.
func reload(path string, logg logging.Logger, w *worker.Worker, sched *schedule.Scheduler, watch *watcher.Watcher) {
	newCfg, err := config.Load(path)
	if err != nil {
		logg.Error("config reload failed", "error", err)
		return
	}

	// Apply updates
	if err := sched.UpdateConfig(newCfg.Schedule); err != nil {
		logg.Error("schedule reload failed", "error", err)
		return
	}
	w.UpdateConfig(*newCfg)
	watch.UpdateConfig(*newCfg)

	logg.Info("config reloaded")
}
