package organize

import (
	"fmt"
	"hash/crc64"
	"os"
	"path/filepath"

	"dirtidy/internal/errors"

	"github.com/gofrs/flock"
)

// LockPath is the run lock file for target. It lives in the temp dir so
// the lock file itself never lands in the tree being organized.
func LockPath(target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", errors.FileOp("cannot resolve target directory", target, errors.FileOperationFailed, err)
	}
	// A symlink and its directory share one lock
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	sum := crc64.Checksum([]byte(abs), crcTable)
	return filepath.Join(os.TempDir(), fmt.Sprintf("dirtidy-%016x.lock", sum)), nil
}

// Lock takes the advisory run lock for target without blocking. A second
// run on the same target fails until the first calls Unlock.
func Lock(target string) (*flock.Flock, error) {
	path, err := LockPath(target)
	if err != nil {
		return nil, err
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.FileOp("failed to acquire run lock", path, errors.FileOperationFailed, err)
	}
	if !ok {
		return nil, errors.NewFileError("another run is already organizing this directory", target, errors.FileOperationFailed, nil)
	}
	return lock, nil
}
