package organize

import (
	"path/filepath"
	"strings"

	"dirtidy/internal/config"
)

// ExtensionOf returns name's extension from the last '.' inclusive. Names
// without a '.', or whose only '.' leads a dotfile, have none.
func ExtensionOf(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return ""
	}
	return name[i:]
}

// IsSorted reports whether r already sits where the sort pass would put
// it. Ignored files and files inside the Duplicates folder count as
// sorted. Otherwise the parent directory, relative to the target, must end
// in the file's category, or be named Others when no rule matches.
func IsSorted(r *FileRecord, cfg *config.Config) bool {
	if cfg.Ignores(r.Path()) {
		r.log.Infof("File %q is skipped", r.Path())
		return true
	}
	if filepath.Clean(r.Parent()) == cfg.DuplicatesPath() {
		return true
	}

	parent := relativeParent(r, cfg)
	if category, ok := cfg.Mapping.Category(r.Name()); ok {
		if parent == category || strings.HasSuffix(parent, "/"+category) {
			return true
		}
	} else if parent == config.OthersDir || strings.HasSuffix(parent, "/"+config.OthersDir) {
		return true
	}

	r.log.Infof("File %q is not sorted", r.Path())
	return false
}

// TargetPath is where the sort pass moves r.
func TargetPath(r *FileRecord, cfg *config.Config) string {
	if category, ok := cfg.Mapping.Category(r.Name()); ok {
		return filepath.Join(cfg.CategoryPath(category), r.Name())
	}
	return filepath.Join(cfg.OthersPath(), r.Name())
}

func relativeParent(r *FileRecord, cfg *config.Config) string {
	rel, err := filepath.Rel(cfg.Target, r.Parent())
	if err != nil {
		return filepath.ToSlash(r.Parent())
	}
	return filepath.ToSlash(rel)
}
