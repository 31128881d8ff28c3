package fs

import (
	"context"
	"os"
)

// wraps os.Rename with retry logic.
// Archives and password files become visible under their final name only here.

func renameWithRetry(ctx context.Context, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
