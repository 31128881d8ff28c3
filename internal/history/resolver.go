package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/raoulx24/backup2zip/internal/logging"
)

// Resolver reads the backup history of one target directory.
type Resolver struct {
	dir string
	log logging.Logger
}

// NewResolver creates a resolver for <target>/backups.
func NewResolver(target string, log logging.Logger) *Resolver {
	return &Resolver{
		dir: filepath.Join(target, BackupsDir),
		log: log,
	}
}

// Dir is the directory archives are read from.
func (r *Resolver) Dir() string {
	return r.dir
}

// Scan returns every archive in the backups directory, oldest first.
// Archives sharing a timestamp are ordered by name. A missing directory is an
// empty history. Foreign or malformed names are skipped, never fatal.
func (r *Resolver) Scan() ([]Archive, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backups dir: %w", err)
	}

	var archives []Archive
	for _, ent := range entries {
		name := ent.Name()
		if !ent.Type().IsRegular() {
			continue
		}

		kind, ts, err := Parse(name)
		if err != nil {
			r.reportSkipped(name, err)
			continue
		}

		archives = append(archives, Archive{
			Name:      name,
			Path:      filepath.Join(r.dir, name),
			Kind:      kind,
			Timestamp: ts,
		})
	}

	sort.Slice(archives, func(i, j int) bool {
		if archives[i].Timestamp != archives[j].Timestamp {
			return archives[i].Timestamp < archives[j].Timestamp
		}
		return archives[i].Name < archives[j].Name
	})

	return archives, nil
}

// Latest returns the most recent archive of either kind.
func (r *Resolver) Latest() (Archive, bool, error) {
	archives, err := r.Scan()
	if err != nil {
		return Archive{}, false, err
	}
	if len(archives) == 0 {
		return Archive{}, false, nil
	}
	return archives[len(archives)-1], true, nil
}

// Threshold returns the timestamp of the latest archive, or 0 when there is
// no prior backup, which makes every file count as changed.
func (r *Resolver) Threshold() (int64, error) {
	latest, ok, err := r.Latest()
	if err != nil || !ok {
		return 0, err
	}
	return latest.Timestamp, nil
}

// reportSkipped logs names that look like ours but do not parse as a warning,
// everything else (partial archives, unrelated files) at debug level.
func (r *Resolver) reportSkipped(name string, err error) {
	looksLikeOurs := (strings.HasPrefix(name, "full") || strings.HasPrefix(name, "incr")) &&
		strings.HasSuffix(name, archiveExt)
	if looksLikeOurs {
		r.log.Warn("ignoring unparsable backup name", "name", name, "error", err)
		return
	}
	r.log.Debug("ignoring foreign file in backups dir", "name", name)
}
