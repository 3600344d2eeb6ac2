//go:build !linux

package organize

func renameNoReplace(oldpath, newpath string) error {
	return renameChecked(oldpath, newpath)
}
