// Package fsutil wraps the two filesystem mutations a run performs so that a
// rename can never clobber an existing file and tests can inject failures.
package fsutil

import (
	"errors"
	"fmt"
	"os"
)

// swapped out by tests to simulate permission errors and races
var (
	renameFunc = os.Rename
	removeFunc = os.Remove
)

// ErrTargetExists is returned when the rename destination is already taken
var ErrTargetExists = errors.New("rename target already exists")

// ErrNotRegular is returned when asked to delete something that is not a plain file
var ErrNotRegular = errors.New("not a regular file")

// RenameNoClobber renames src to dst unless dst already exists.
// Both paths are expected to be in the same directory so the rename is atomic.
func RenameNoClobber(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, dst)
	} else if !os.IsNotExist(err) {
		return err
	}
	return renameFunc(src, dst)
}

// RemoveFile deletes path if it is a regular file
func RemoveFile(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s (%s)", ErrNotRegular, path, fi.Mode().Type())
	}
	return removeFunc(path)
}
