package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/logging"
)

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "accepts 2 arg(s)"},
		{"no mode", []string{src, dst}, "Must specify one of --full or --incremental"},
		{"both modes", []string{"--full", "--incremental", src, dst}, "Must specify one of --full or --incremental"},
		{"one positional", []string{"--full", src}, "accepts 2 arg(s)"},
		{"three positionals", []string{"--full", src, dst, dst}, "accepts 2 arg(s)"},
		{"unknown flag", []string{"--differential", src, dst}, "unknown flag"},
		{"history without target", []string{"history"}, "accepts 1 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := execute(t, tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, exitUsage, stderr)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.want)
			}
			if !strings.Contains(stderr, "Usage:") {
				t.Errorf("usage not printed: %q", stderr)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want empty", stdout)
			}
		})
	}

	entries, err := os.ReadDir(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("usage errors wrote to target: %v", entries)
	}
}

func TestRun_MissingSource(t *testing.T) {
	code, _, stderr := execute(t, "--full", filepath.Join(t.TempDir(), "nope"), t.TempDir())
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "precondition failed") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_FullThenIncremental(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "alpha")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "bravo")

	code, stdout, stderr := execute(t, "--full", "-v", src, dst)
	if code != exitOK {
		t.Fatalf("full: exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "full backup: 2 files") {
		t.Errorf("full stdout = %q", stdout)
	}

	code, stdout, stderr = execute(t, "--incremental", src, dst)
	if code != exitOK {
		t.Fatalf("incremental: exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "nothing archived") {
		t.Errorf("incremental stdout = %q", stdout)
	}

	archives, err := history.NewResolver(dst, logging.Nop()).Scan()
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) != 1 || archives[0].Kind != history.Full {
		t.Errorf("archives = %+v, want one full", archives)
	}
}

func TestRun_Exclude(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "keep.txt"), "k")
	writeFile(t, filepath.Join(src, "cache", "skip.txt"), "s")

	code, stdout, stderr := execute(t, "--full", "--exclude", "cache", src, dst)
	if code != exitOK {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "1 files") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestHistory(t *testing.T) {
	dst := t.TempDir()
	for _, name := range []string{"incr2000.zip", "full1000.zip", "notes.txt"} {
		writeFile(t, filepath.Join(dst, history.BackupsDir, name), "")
	}

	code, stdout, stderr := execute(t, "history", dst)
	if code != exitOK {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("table = %q", stdout)
	}
	if !strings.HasPrefix(lines[1], "full1000.zip") || !strings.HasPrefix(lines[2], "incr2000.zip") {
		t.Errorf("rows out of order: %q", lines)
	}
	if lines[3] != "threshold: 2000" {
		t.Errorf("threshold line = %q", lines[3])
	}

	code, stdout, _ = execute(t, "history", "--json", dst)
	if code != exitOK {
		t.Fatalf("json: exit %d", code)
	}
	var rep historyReport
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("decoding %q: %v", stdout, err)
	}
	if rep.Threshold != 2000 || len(rep.Archives) != 2 || rep.Archives[1].Kind != history.Incremental {
		t.Errorf("report = %+v", rep)
	}
}

func TestHistory_EmptyTarget(t *testing.T) {
	code, stdout, _ := execute(t, "history", "--json", t.TempDir())
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"archives": []`) || !strings.Contains(stdout, `"threshold": 0`) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestDaemon_BadConfig(t *testing.T) {
	code, _, stderr := execute(t, "daemon", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, "loading config") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestDaemon_PollsAndStops(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "alpha")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, `
source:
  path: `+src+`
  watch:
    mode: poll
    pollInterval: 20ms
destination:
  root: `+dst+`
logging:
  level: warn
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)
	go func() {
		var stdout, stderr bytes.Buffer
		done <- run(ctx, []string{"daemon", "--config", cfgPath}, &stdout, &stderr)
	}()

	r := history.NewResolver(dst, logging.Nop())
	deadline := time.Now().Add(5 * time.Second)
	for {
		archives, err := r.Scan()
		if err != nil {
			t.Fatal(err)
		}
		if len(archives) > 0 {
			if archives[0].Kind != history.Incremental {
				t.Errorf("first archive = %+v, want incremental", archives[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("daemon produced no archive")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case code := <-done:
		if code != exitOK {
			t.Errorf("exit code = %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
