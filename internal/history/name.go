// Package history recovers the backup timeline of a target directory purely
// from the archive file names found in it.
package history

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Kind is the backup mode an archive was produced by.
type Kind string

const (
	Full        Kind = "full"
	Incremental Kind = "incremental"
)

const (
	// BackupsDir and PasswordsDir are the target subdirectories.
	BackupsDir   = "backups"
	PasswordsDir = "passwords"

	archiveExt = ".zip"
)

var (
	// ErrNotArchive is returned by Parse for names this system did not produce.
	ErrNotArchive = errors.New("not a backup archive name")

	archivePattern = regexp.MustCompile(`^(full|incr)([0-9]+)\.zip$`)
)

// ParseKind accepts the long and the short spelling of a kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "full":
		return Full, nil
	case "incremental", "incr":
		return Incremental, nil
	default:
		return "", fmt.Errorf("unknown backup kind %q", s)
	}
}

// token is the kind as it appears in archive names.
func (k Kind) token() string {
	if k == Incremental {
		return "incr"
	}
	return string(k)
}

// Format builds the archive file name for a kind and a millisecond timestamp.
func Format(kind Kind, ts int64) string {
	return kind.token() + strconv.FormatInt(ts, 10) + archiveExt
}

// Parse is the inverse of Format. Names with non-canonical digits (leading
// zeros) or timestamps that overflow int64 are rejected.
func Parse(name string) (Kind, int64, error) {
	m := archivePattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, ErrNotArchive
	}

	ts, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: %v", ErrNotArchive, name, err)
	}
	if strconv.FormatInt(ts, 10) != m[2] {
		return "", 0, fmt.Errorf("%w: %q: non-canonical timestamp", ErrNotArchive, name)
	}

	kind := Full
	if m[1] == "incr" {
		kind = Incremental
	}
	return kind, ts, nil
}

// PasswordName is the companion password file name for a run timestamp.
func PasswordName(ts int64) string {
	return "pass" + strconv.FormatInt(ts, 10) + ".txt"
}

// PasswordPath returns where the password of an archive lives under target.
func PasswordPath(target string, ts int64) string {
	return filepath.Join(target, PasswordsDir, PasswordName(ts))
}

// Archive is one completed backup found on disk.
type Archive struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Kind      Kind   `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the run timestamp as a time.Time.
func (a Archive) Time() time.Time {
	return time.UnixMilli(a.Timestamp)
}
