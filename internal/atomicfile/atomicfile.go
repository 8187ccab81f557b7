// Package atomicfile writes files via a temp-file-then-rename so that a
// reader never observes a partially written manifest or lockfile.
//
// Adapted from the teacher's SafeWriter/renameWithFallback pattern, pared
// down to the single-file case (the installer and lockfile store never
// need the directory-swap dance SafeWriter does for a vendor tree).
package atomicfile

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// Write atomically replaces path with data: the bytes are written to a
// sibling temp file, flushed, then renamed over path.
func Write(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating parent dir for %s", path)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "writing temp file for %s", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "syncing temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "closing temp file for %s", path)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "chmod temp file for %s", path)
	}

	if err := renameWithFallback(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "replacing %s", path)
	}
	return nil
}

// renameWithFallback renames src to dest, falling back to a copy+remove
// when the rename fails because src and dest live on different devices.
func renameWithFallback(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}

	linkErr, ok := err.(*os.LinkError)
	if !ok || linkErr.Err != syscall.EXDEV {
		return err
	}

	data, rerr := os.ReadFile(src)
	if rerr != nil {
		return linkErr
	}
	if werr := os.WriteFile(dest, data, 0o644); werr != nil {
		return werr
	}
	return os.Remove(src)
}
