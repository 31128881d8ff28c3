package fs

import (
	"context"
	"errors"
	"os"
)

type OSFS struct{}

// the concrete implementation of FS backed by the local OS filesystem.
// Platform-specific details (inode, birth time) are handled in build-tagged files.

func New() *OSFS {
	return &OSFS{}
}

// Stat does not follow symbolic links.
func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Lstat(path)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Path:      path,
		Size:      st.Size(),
		MTime:     st.ModTime(),
		BirthTime: birthTime(path, st),
		Inode:     inodeOf(st),
		Mode:      st.Mode(),
	}, nil
}

func (o *OSFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove deletes a single file. A missing file is not an error.
func (o *OSFS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (o *OSFS) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	return writeAtomic(ctx, path, data, perm)
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, oldPath, newPath)
}
