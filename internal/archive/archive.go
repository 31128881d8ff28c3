// Package archive writes password protected, AES-256 encrypted zip archives.
//
// An archive is written to "<path>.partial" and only renamed to its final
// name by a successful Close, so an interrupted or failed run never leaves a
// file that looks like a completed backup.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/yeka/zip"

	"github.com/raoulx24/backup2zip/internal/fs"
)

// PartialSuffix marks archives that are still being written.
const PartialSuffix = ".partial"

var (
	// ErrArchiveWrite wraps every failure to add an entry or finalize the archive.
	ErrArchiveWrite = errors.New("archive write failed")
	// ErrClosed is returned by AddFile after Close or Abort.
	ErrClosed = errors.New("archive already closed")
)

// Options is the encryption configuration handed to the zip library.
// Entries are always DEFLATE compressed at the library's default level.
type Options struct {
	Password   string
	Encryption zip.EncryptionMethod
}

// DefaultOptions returns AES-256 encryption with the given password.
func DefaultOptions(password string) Options {
	return Options{
		Password:   password,
		Encryption: zip.AES256Encryption,
	}
}

// ZipWriter is one open archive. It is not safe for concurrent use.
type ZipWriter struct {
	path    string
	tmp     string
	opts    Options
	fs      fs.FS
	file    *os.File
	zw      *zip.Writer
	entries int
	done    bool
}

// Create opens a new archive that will be published at path.
// A nil filesystem means the OS filesystem.
func Create(path string, opts Options, filesystem fs.FS) (*ZipWriter, error) {
	if opts.Password == "" {
		return nil, fmt.Errorf("%w: empty password", ErrArchiveWrite)
	}
	if filesystem == nil {
		filesystem = fs.New()
	}

	tmp := path + PartialSuffix
	//nolint:gosec // G304: path is built from the configured target directory
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", ErrArchiveWrite, tmp, err)
	}

	return &ZipWriter{
		path: path,
		tmp:  tmp,
		opts: opts,
		fs:   filesystem,
		file: f,
		zw:   zip.NewWriter(f),
	}, nil
}

// Path is the final archive path.
func (w *ZipWriter) Path() string {
	return w.path
}

// Entries returns the number of files added so far.
func (w *ZipWriter) Entries() int {
	return w.entries
}

// AddFile copies src into the archive as an encrypted entry called name.
// name must be slash-separated and relative.
func (w *ZipWriter) AddFile(src, name string) error {
	if w.done {
		return ErrClosed
	}

	//nolint:gosec // G304: src comes from walking the configured source tree
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrArchiveWrite, src, err)
	}
	defer in.Close() //nolint:errcheck // read-only

	dst, err := w.zw.Encrypt(name, w.opts.Password, w.opts.Encryption)
	if err != nil {
		return fmt.Errorf("%w: creating entry %s: %w", ErrArchiveWrite, name, err)
	}

	if _, err := io.Copy(dst, in); err != nil {
		return fmt.Errorf("%w: writing entry %s: %w", ErrArchiveWrite, name, err)
	}

	w.entries++
	return nil
}

// Close finishes the zip, flushes it to disk and publishes it under its final
// name. On failure the partial file is removed. Calling Close or Abort again
// is a no-op.
func (w *ZipWriter) Close() (err error) {
	if w.done {
		return nil
	}
	w.done = true

	defer func() {
		if err != nil {
			_ = os.Remove(w.tmp)
		}
	}()

	if err := w.zw.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("%w: finishing zip: %w", ErrArchiveWrite, err)
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("%w: syncing: %w", ErrArchiveWrite, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("%w: closing: %w", ErrArchiveWrite, err)
	}
	if err := w.fs.Rename(context.Background(), w.tmp, w.path); err != nil {
		return fmt.Errorf("%w: publishing: %w", ErrArchiveWrite, err)
	}
	return nil
}

// Abort discards the archive. It is safe to defer right after Create.
func (w *ZipWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	closeErr := w.file.Close()
	if err := os.Remove(w.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}
