package organize

import (
	"os"

	"dirtidy/internal/errors"
)

// renameChecked refuses to rename over an existing entry. The check and the
// rename are two steps, so it relies on nothing else writing the tree.
func renameChecked(oldpath, newpath string) error {
	_, err := os.Lstat(newpath)
	if err == nil {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: errors.ErrDestinationUsed}
	}
	if !os.IsNotExist(err) {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: err}
	}
	return os.Rename(oldpath, newpath)
}
