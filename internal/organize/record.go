package organize

import (
	"os"
	"path/filepath"
	"strings"

	"dirtidy/internal/errors"
	"dirtidy/internal/log"
)

// FileRecord tracks one regular file found by the scan. Its path is the
// single source of truth for where the file is right now.
type FileRecord struct {
	path string
	log  log.Logger
}

// NewFileRecord wraps path, which must name a regular file.
func NewFileRecord(path string, logger log.Logger) (*FileRecord, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, errors.FileOp("cannot stat file", path, errors.FileOperationFailed, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.NewFileError("not a regular file", path, errors.FileOperationFailed, nil)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &FileRecord{path: path, log: logger}, nil
}

// Path returns the current path.
func (r *FileRecord) Path() string { return r.path }

// Name returns the file name with its extension.
func (r *FileRecord) Name() string { return filepath.Base(r.path) }

// Parent returns the directory holding the file.
func (r *FileRecord) Parent() string { return filepath.Dir(r.path) }

// Extension returns the extension including its '.', or "".
func (r *FileRecord) Extension() string { return ExtensionOf(r.Name()) }

// Stem returns the name without its extension.
func (r *FileRecord) Stem() string {
	name := r.Name()
	return strings.TrimSuffix(name, ExtensionOf(name))
}

// Size returns the current size in bytes, or 0 if it cannot be read.
func (r *FileRecord) Size() int64 {
	info, err := os.Lstat(r.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// MoveTo renames the file to newPath, creating missing parent directories.
// An existing file at newPath is never replaced. The record's path changes
// only if the rename succeeds.
func (r *FileRecord) MoveTo(newPath string) error {
	r.log.Infof("Moving %q to %q", r.path, newPath)

	dir := filepath.Dir(newPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		err = errors.FileOp("failed to create destination directory", dir, errors.FileOperationFailed, err)
		r.log.WithError(err).Errorf("Failed to move %q to %q", r.path, newPath)
		return err
	}

	if err := renameNoReplace(r.path, newPath); err != nil {
		err = errors.FileOp("failed to move file", r.path, errors.FileOperationFailed, err)
		r.log.WithError(err).Errorf("Failed to move %q to %q", r.path, newPath)
		return err
	}

	r.path = newPath
	return nil
}
