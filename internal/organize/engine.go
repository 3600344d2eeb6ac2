package organize

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dirtidy/internal/config"
	"dirtidy/internal/errors"
	"dirtidy/internal/log"
	"dirtidy/pkg/types"

	"github.com/google/uuid"
)

// Passes selects which passes Run executes. Enabled passes always run in
// the order sort, dedupe, prune.
type Passes struct {
	Sort   bool
	Dedupe bool
	Prune  bool
}

// AllPasses enables every pass.
func AllPasses() Passes {
	return Passes{Sort: true, Dedupe: true, Prune: true}
}

// Organizer reorganizes one target tree. It scans once at construction and
// every pass works from that file list, newest first.
type Organizer struct {
	cfg   *config.Config
	log   log.Logger
	runID string
	files []*FileRecord
}

// New scans cfg.Target and returns an Organizer over the files found.
// Files that cannot be read during the scan are logged and left out.
func New(cfg *config.Config, logger log.Logger) (*Organizer, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("invalid configuration", "", errors.InvalidConfig, errors.New("nil config"))
	}
	if logger == nil {
		logger = log.Discard()
	}

	runID := uuid.NewString()
	o := &Organizer{
		cfg:   cfg,
		log:   logger.With(log.F("run", runID)),
		runID: runID,
	}
	if err := o.scan(); err != nil {
		return nil, err
	}
	return o, nil
}

// RunID identifies this organizer in logs and reports.
func (o *Organizer) RunID() string { return o.runID }

// Files returns the scanned records in processing order.
func (o *Organizer) Files() []*FileRecord {
	out := make([]*FileRecord, len(o.files))
	copy(out, o.files)
	return out
}

func (o *Organizer) scan() error {
	type scanned struct {
		rec     *FileRecord
		modTime time.Time
	}
	var found []scanned

	root := o.cfg.Target

	// The run lock may sit inside the tree when the target holds the
	// temp dir.
	var lockInfo os.FileInfo
	if lockPath, err := LockPath(root); err == nil {
		lockInfo, _ = os.Stat(lockPath)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.FileOp("cannot scan target directory", root, errors.FileOperationFailed, err)
			}
			o.log.WithError(err).Warnf("Skipping unreadable entry %q", path)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr == nil && lockInfo != nil && os.SameFile(info, lockInfo) {
			o.log.Debugf("Skipping run lock %q", path)
			return nil
		}

		rec, err := NewFileRecord(path, o.log)
		if err != nil {
			o.log.WithError(err).Errorf("Error processing file %q", path)
			return nil
		}
		modTime := time.Unix(0, 0)
		if infoErr == nil {
			modTime = info.ModTime()
		}
		found = append(found, scanned{rec: rec, modTime: modTime})
		return nil
	})
	if err != nil {
		return err
	}

	// Newest first; the first copy of any content is the one kept.
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].modTime.After(found[j].modTime)
	})

	o.files = make([]*FileRecord, len(found))
	for i, s := range found {
		o.files[i] = s.rec
	}
	o.log.Debugf("Scanned %d files under %q", len(o.files), root)
	return nil
}

// SortAllFiles moves every file that is not already sorted into its
// category folder. The first failed move aborts the pass; earlier moves
// stay in place.
func (o *Organizer) SortAllFiles() ([]types.Move, error) {
	var moves []types.Move
	for _, rec := range o.files {
		if IsSorted(rec, o.cfg) {
			continue
		}

		dest, ok, err := o.resolveCollision(rec, TargetPath(rec, o.cfg))
		if err != nil {
			return moves, err
		}
		if !ok {
			continue
		}

		src, size := rec.Path(), rec.Size()
		if err := rec.MoveTo(dest); err != nil {
			return moves, err
		}
		moves = append(moves, types.Move{Pass: types.SortPass, SourcePath: src, DestinationPath: dest, Size: size})
	}
	return moves, nil
}

// resolveCollision applies the collision setting when dest is taken. It
// returns false when the file should stay where it is.
func (o *Organizer) resolveCollision(rec *FileRecord, dest string) (string, bool, error) {
	_, err := os.Lstat(dest)
	if os.IsNotExist(err) {
		return dest, true, nil
	}
	if err != nil {
		return "", false, errors.FileOp("error checking destination", dest, errors.FileOperationFailed, err)
	}

	switch o.cfg.Settings.Collision {
	case config.CollisionSkip:
		o.log.Warnf("Destination %q already exists, leaving %q in place", dest, rec.Path())
		return "", false, nil
	case config.CollisionRename:
		dir := filepath.Dir(dest)
		name, err := UniqueName(dir, rec.Stem(), rec.Extension())
		if err != nil {
			return "", false, err
		}
		o.log.Infof("Destination %q already exists, using %q", dest, name)
		return filepath.Join(dir, name), true, nil
	default:
		// MoveTo refuses to replace dest and reports the collision.
		return dest, true, nil
	}
}

// MoveDuplicates moves every file whose content was already seen earlier
// in the pass into the Duplicates folder. Files are visited newest first,
// so the most recently modified copy stays put.
func (o *Organizer) MoveDuplicates() ([]types.Move, error) {
	// The folder itself is created by the first move into it.
	dupDir := o.cfg.DuplicatesPath()

	// Copies already parked in Duplicates never displace an original
	// elsewhere in the tree.
	ordered := make([]*FileRecord, 0, len(o.files))
	var parked []*FileRecord
	for _, rec := range o.files {
		if filepath.Clean(rec.Parent()) == dupDir {
			parked = append(parked, rec)
			continue
		}
		ordered = append(ordered, rec)
	}
	ordered = append(ordered, parked...)

	var moves []types.Move
	seen := make(map[string][]*FileRecord)
	for _, rec := range ordered {
		if o.cfg.Ignores(rec.Path()) {
			continue
		}

		sum, err := Checksum(rec.Path())
		if err != nil {
			o.log.WithError(err).Errorf("Failed to checksum %q", rec.Path())
			return moves, err
		}

		original, err := o.findOriginal(seen[sum], rec)
		if err != nil {
			return moves, err
		}
		if original == nil {
			seen[sum] = append(seen[sum], rec)
			continue
		}
		if filepath.Clean(rec.Parent()) == dupDir {
			o.log.Debugf("File %q is already in the duplicates folder", rec.Path())
			continue
		}

		name, err := UniqueName(dupDir, rec.Stem(), rec.Extension())
		if err != nil {
			return moves, err
		}
		dest := filepath.Join(dupDir, name)
		src, size := rec.Path(), rec.Size()
		o.log.Infof("File %q duplicates %q", src, original.Path())
		if err := rec.MoveTo(dest); err != nil {
			return moves, err
		}
		moves = append(moves, types.Move{Pass: types.DedupePass, SourcePath: src, DestinationPath: dest, Size: size})
	}
	return moves, nil
}

// findOriginal returns the kept record rec duplicates, or nil. Without
// content verification any checksum match counts.
func (o *Organizer) findOriginal(candidates []*FileRecord, rec *FileRecord) (*FileRecord, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if !o.cfg.Settings.VerifyContent {
		return candidates[0], nil
	}
	for _, c := range candidates {
		same, err := sameContent(c.Path(), rec.Path())
		if err != nil {
			return nil, err
		}
		if same {
			return c, nil
		}
	}
	o.log.Warnf("Checksum collision: %q matches %q by checksum only, keeping both", rec.Path(), candidates[0].Path())
	return nil, nil
}

// RemoveEmptyFolders removes every empty directory below the target,
// deepest first, so a parent emptied by removing its children goes in the
// same pass. The target itself is never removed.
func (o *Organizer) RemoveEmptyFolders() ([]string, error) {
	root := o.cfg.Target
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return errors.FileOp("cannot scan target directory", root, errors.FileOperationFailed, err)
			}
			o.log.WithError(err).Warnf("Skipping unreadable entry %q", path)
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		di, dj := pathDepth(dirs[i]), pathDepth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] > dirs[j]
	})

	var removed []string
	for _, dir := range dirs {
		empty, err := isDirEmpty(dir)
		if err != nil {
			o.log.WithError(err).Warnf("Cannot read directory %q, leaving it", dir)
			continue
		}
		if !empty {
			continue
		}
		o.log.Infof("Removing empty directory %q", dir)
		if err := os.Remove(dir); err != nil {
			return removed, errors.FileOp("failed to remove directory", dir, errors.DirectoryRemovalFailed, err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

// Run executes the enabled passes in order. The report holds everything
// done up to the point of failure.
func (o *Organizer) Run(p Passes) (*types.Report, error) {
	report := &types.Report{
		RunID:   o.runID,
		Target:  o.cfg.Target,
		Started: time.Now(),
		Scanned: len(o.files),
	}
	defer func() { report.Finished = time.Now() }()

	if p.Sort {
		o.log.Infof("Sorting files...")
		moves, err := o.SortAllFiles()
		report.Moves = append(report.Moves, moves...)
		if err != nil {
			return report, errors.Wrap(err, "sort pass failed")
		}
	}

	if p.Dedupe {
		o.log.Infof("Moving duplicates...")
		moves, err := o.MoveDuplicates()
		report.Moves = append(report.Moves, moves...)
		if err != nil {
			return report, errors.Wrap(err, "duplicate pass failed")
		}
	}

	if p.Prune {
		o.log.Infof("Removing empty folders...")
		removed, err := o.RemoveEmptyFolders()
		report.RemovedDirs = append(report.RemovedDirs, removed...)
		if err != nil {
			return report, errors.Wrap(err, "prune pass failed")
		}
	}

	return report, nil
}

func pathDepth(path string) int {
	return strings.Count(filepath.ToSlash(filepath.Clean(path)), "/")
}

func isDirEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}
