//go:build darwin || freebsd || netbsd

package fs

import (
	"os"
	"syscall"
	"time"
)

// birthTime reads st_birthtimespec. Filesystems that do not record it report
// zero or a negative value, in which case the modification time is used.
func birthTime(_ string, info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		sec, nsec := st.Birthtimespec.Unix()
		if sec > 0 || (sec == 0 && nsec > 0) {
			return time.Unix(sec, nsec)
		}
	}
	return info.ModTime()
}
