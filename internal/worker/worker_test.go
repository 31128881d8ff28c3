package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raoulx24/backup2zip/internal/backup"
	"github.com/raoulx24/backup2zip/internal/config"
	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/logging"
	"github.com/raoulx24/backup2zip/internal/mailbox"
	"github.com/raoulx24/backup2zip/internal/metrics"
	"github.com/raoulx24/backup2zip/internal/retention"
)

func newWorker(t *testing.T, keepFulls int) (*Worker, config.Config, *mailbox.Mailbox[Job]) {
	t.Helper()
	source := t.TempDir()
	if err := os.WriteFile(filepath.Join(source, "a.txt"), []byte("alpha"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{
		Source: config.SourceConfig{Path: source},
		Destination: config.DestinationConfig{
			Root:      t.TempDir(),
			Retention: config.RetentionConfig{KeepFulls: keepFulls},
		},
		Metrics: config.MetricsConfig{Textfile: filepath.Join(t.TempDir(), "backup2zip.prom")},
	}

	log := logging.Nop()
	mb := mailbox.New[Job]()
	w := New(cfg, log, backup.NewRunner(log, nil), retention.New(cfg.Destination.Retention, log, nil), metrics.New(), mb)
	return w, cfg, mb
}

func archives(t *testing.T, target string) []history.Archive {
	t.Helper()
	list, err := history.NewResolver(target, logging.Nop()).Scan()
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func TestPreferFull(t *testing.T) {
	full := Job{Kind: history.Full, Trigger: "schedule"}
	incr := Job{Kind: history.Incremental, Trigger: "watch"}
	full2 := Job{Kind: history.Full, Trigger: "startup"}

	if got := PreferFull(full, incr); got != full {
		t.Errorf("full+incr = %+v", got)
	}
	if got := PreferFull(incr, full); got != full {
		t.Errorf("incr+full = %+v", got)
	}
	if got := PreferFull(full, full2); got != full2 {
		t.Errorf("full+full = %+v", got)
	}
}

func TestHandle_RunsBackupAndRetention(t *testing.T) {
	w, cfg, _ := newWorker(t, 1)
	ctx := context.Background()

	first, err := w.Handle(ctx, Job{Kind: history.Full, Trigger: "test"})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Files != 1 || first.Archive == "" {
		t.Fatalf("first result = %+v", first)
	}

	second, err := w.Handle(ctx, Job{Kind: history.Full, Trigger: "test"})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	got := archives(t, cfg.Destination.Root)
	if len(got) != 1 || got[0].Path != second.Archive {
		t.Errorf("archives after retention = %+v, want only %s", got, second.Archive)
	}
	if _, err := os.Stat(first.PasswordFile); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("password of pruned archive still present: %v", err)
	}

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), `backup2zip_runs_total{kind="full",result="success"} 2`) {
		t.Errorf("metrics textfile:\n%s", data)
	}
}

func TestHandle_FailureIsReported(t *testing.T) {
	w, cfg, _ := newWorker(t, 0)
	cfg.Source.Path = filepath.Join(t.TempDir(), "missing")
	w.UpdateConfig(cfg)

	_, err := w.Handle(context.Background(), Job{Kind: history.Incremental})
	if !errors.Is(err, backup.ErrPrecondition) {
		t.Fatalf("err = %v, want ErrPrecondition", err)
	}

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(data), `backup2zip_runs_total{kind="incremental",result="failure"} 1`) {
		t.Errorf("metrics textfile:\n%s", data)
	}
}

func TestStart_ProcessesMailboxUntilCanceled(t *testing.T) {
	w, cfg, mb := newWorker(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	mb.Merge(Job{Kind: history.Full, Trigger: "test", Queued: time.Now()}, PreferFull)

	deadline := time.Now().Add(5 * time.Second)
	for len(archives(t, cfg.Destination.Root)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker did not run the queued job")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
