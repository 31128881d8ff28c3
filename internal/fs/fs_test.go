package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestOSFS_Stat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	info, err := New().Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("Size = %d, want 5", info.Size)
	}
	if !info.MTime.Equal(mtime) {
		t.Errorf("MTime = %v, want %v", info.MTime, mtime)
	}
	if info.BirthTime.IsZero() {
		t.Error("BirthTime is zero")
	}
	if !info.Mode.IsRegular() {
		t.Errorf("Mode = %v, want regular", info.Mode)
	}
}

func TestOSFS_StatMissing(t *testing.T) {
	_, err := New().Stat(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Stat error = %v, want ErrNotExist", err)
	}
}

func TestOSFS_WriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pass1.txt")

	if err := New().WriteFile(context.Background(), path, []byte("secret\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "secret\n" {
		t.Errorf("content = %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestOSFS_RemoveMissing(t *testing.T) {
	if err := New().Remove(filepath.Join(t.TempDir(), "gone")); err != nil {
		t.Errorf("Remove of missing file: %v", err)
	}
}

func TestChanged(t *testing.T) {
	base := FileInfo{Size: 10, MTime: time.Unix(100, 0), Inode: 7}

	tests := []struct {
		name string
		now  FileInfo
		want bool
	}{
		{"same", base, false},
		{"size", FileInfo{Size: 11, MTime: base.MTime, Inode: 7}, true},
		{"mtime", FileInfo{Size: 10, MTime: time.Unix(101, 0), Inode: 7}, true},
		{"inode", FileInfo{Size: 10, MTime: base.MTime, Inode: 8}, true},
		{"unknown inode", FileInfo{Size: 10, MTime: base.MTime}, false},
	}

	for _, tt := range tests {
		if got := Changed(base, tt.now); got != tt.want {
			t.Errorf("%s: Changed = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRetry(t *testing.T) {
	old := retryBase
	retryBase = time.Millisecond
	defer func() { retryBase = old }()

	t.Run("transient then success", func(t *testing.T) {
		calls := 0
		err := retry(context.Background(), "op", func() error {
			calls++
			if calls < 3 {
				return syscall.EBUSY
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("permanent", func(t *testing.T) {
		calls := 0
		err := retry(context.Background(), "op", func() error {
			calls++
			return os.ErrPermission
		})
		if !errors.Is(err, os.ErrPermission) || calls != 1 {
			t.Fatalf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		err := retry(context.Background(), "op", func() error { return syscall.EAGAIN })
		if !errors.Is(err, syscall.EAGAIN) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := retry(ctx, "op", func() error { return nil })
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	})
}
