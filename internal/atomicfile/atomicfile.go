// Package atomicfile publishes files so a concurrent reader never observes a
// partial write: data lands in a temp file beside the destination, then an
// os.Rename makes it visible in one step.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Write creates (or truncates) path with data using a temp-file-then-rename
// sequence so that any reader either sees no file at all or the complete
// contents, never a partial write.
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create temp file %s", tmp)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "write temp file %s", tmp)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "close temp file %s", tmp)
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "rename %s to %s in %s", tmp, path, dir)
	}

	return nil
}

// Append opens path for append (creating it if necessary), writes data, and
// returns. Unlike Write, this is not atomic with respect to the append
// itself -- callers that need a visibility signal should publish a journal
// marker with Write after appending.
func Append(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s for append", path)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrapf(err, "append to %s", path)
	}
	return nil
}
