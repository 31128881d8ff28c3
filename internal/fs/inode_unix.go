//go:build unix

package fs

import (
	"os"
	"syscall"
)

// inodeOf extracts the inode from syscall.Stat_t.
// Used to notice a file being replaced while it is archived.
func inodeOf(info os.FileInfo) uint64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return uint64(st.Ino)
}
