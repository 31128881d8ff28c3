package fs

import (
	"errors"
	"syscall"
)

// isTransient reports whether an operation should be retried.
// Anything else fails immediately.
func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EINTR)
}
