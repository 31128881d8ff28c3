package fsprobe

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestProbe_LocalDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("event delivery timing is only reliable on linux")
	}
	dir := t.TempDir()

	res := ProbeTimeout(dir, 2*time.Second)
	if !res.FsnotifySupported {
		t.Fatalf("fsnotify unsupported on tempdir: %s", res.Reason)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("probe left files behind: %v", entries)
	}
}

func TestProbe_Rejects(t *testing.T) {
	if res := Probe(filepath.Join(t.TempDir(), "missing")); res.FsnotifySupported || res.Reason == "" {
		t.Errorf("missing dir: %+v", res)
	}

	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if res := Probe(file); res.FsnotifySupported || res.Reason != "not a directory" {
		t.Errorf("regular file: %+v", res)
	}
}
