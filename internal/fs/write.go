package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// writes small files (password files) through a temp file and an atomic
// rename, so a reader never sees a half-written file.

func writeAtomic(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := writeOnce(tmp, data, perm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := renameWithRetry(ctx, tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return nil
}

func writeOnce(f *os.File, data []byte, perm os.FileMode) error {
	defer func() {
		_ = f.Close()
	}()

	if err := f.Chmod(perm); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
