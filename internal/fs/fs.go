// Package fs defines the filesystem abstraction used by backup2zip.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"os"
	"time"
)

// FileInfo holds the attributes backup decisions are made from.
// BirthTime is the creation time where the platform reports one, see birthTime.
type FileInfo struct {
	Path      string
	Size      int64
	MTime     time.Time
	BirthTime time.Time
	Inode     uint64
	Mode      os.FileMode
}

type FS interface {
	Stat(path string) (FileInfo, error)
	WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error
	Rename(ctx context.Context, oldPath, newPath string) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
}

// Changed reports whether a file looks different between two stats.
func Changed(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	if now.Size != orig.Size {
		return true
	}
	return false
}
