package organize

import (
	"fmt"
	"os"
	"path/filepath"

	"dirtidy/internal/errors"
)

// UniqueName returns stem+ext if no entry of that name exists in dir,
// otherwise the first free "stem_N"+ext for N = 1, 2, ...
func UniqueName(dir, stem, ext string) (string, error) {
	candidate := stem + ext
	for n := 1; ; n++ {
		_, err := os.Lstat(filepath.Join(dir, candidate))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", errors.FileOp("cannot check destination name", filepath.Join(dir, candidate), errors.FileOperationFailed, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
}
