package organize_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dirtidy/internal/config"
	"dirtidy/internal/errors"
	"dirtidy/internal/log"
	"dirtidy/internal/organize"
	"dirtidy/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrganizer(t *testing.T, cfg *config.Config) *organize.Organizer {
	t.Helper()
	o, err := organize.New(cfg, log.Discard())
	require.NoError(t, err)
	return o
}

func TestScanOrdersNewestFirst(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "old.txt"), "old", 3*time.Hour)
	writeFile(t, filepath.Join(target, "sub", "new.txt"), "new", time.Hour)
	writeFile(t, filepath.Join(target, "mid.txt"), "mid", 2*time.Hour)
	require.NoError(t, os.MkdirAll(filepath.Join(target, "emptydir"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(target, "old.txt"), filepath.Join(target, "link.txt")))

	o := newOrganizer(t, newConfig(t, target, nil))

	var names []string
	for _, rec := range o.Files() {
		names = append(names, rec.Name())
	}
	assert.Equal(t, []string{"new.txt", "mid.txt", "old.txt"}, names, "symlinks and directories are not scanned")
	assert.NotEmpty(t, o.RunID())
}

func TestScanTiesKeepDiscoveryOrder(t *testing.T) {
	target := t.TempDir()
	stamp := time.Now().Add(-time.Hour)
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		path := filepath.Join(target, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
		require.NoError(t, os.Chtimes(path, stamp, stamp))
	}

	o := newOrganizer(t, newConfig(t, target, nil))

	var names []string
	for _, rec := range o.Files() {
		names = append(names, rec.Name())
	}
	// WalkDir visits in lexical order
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := organize.New(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestSortAllFilesExample(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "photo.jpg"), "jpg", 0)
	writeFile(t, filepath.Join(target, "note.tmp"), "tmp", 0)
	writeFile(t, filepath.Join(target, "doc.pdf"), "pdf", 0)

	o := newOrganizer(t, newConfig(t, target, imageRules()))
	moves, err := o.SortAllFiles()
	require.NoError(t, err)

	assert.Len(t, moves, 2)
	assertExists(t, filepath.Join(target, "Images", "photo.jpg"))
	assertExists(t, filepath.Join(target, "note.tmp"))
	assertExists(t, filepath.Join(target, "Others", "doc.pdf"))
	assertMissing(t, filepath.Join(target, "photo.jpg"))
	assertMissing(t, filepath.Join(target, "doc.pdf"))

	for _, m := range moves {
		assert.Equal(t, types.SortPass, m.Pass)
		assert.Equal(t, int64(3), m.Size)
	}
}

func TestSortAllFilesIdempotent(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "a.jpg"), "a", 0)
	writeFile(t, filepath.Join(target, "deep", "b.png"), "b", 0)
	writeFile(t, filepath.Join(target, "deep", "er", "c.txt"), "c", 0)
	writeFile(t, filepath.Join(target, "Others", "d.bin"), "d", 0)
	cfg := newConfig(t, target, imageRules())

	o := newOrganizer(t, cfg)
	first, err := o.SortAllFiles()
	require.NoError(t, err)
	assert.Len(t, first, 3)

	// Same organizer, records already updated
	second, err := o.SortAllFiles()
	require.NoError(t, err)
	assert.Empty(t, second)

	// Fresh scan of the reorganized tree
	third, err := newOrganizer(t, cfg).SortAllFiles()
	require.NoError(t, err)
	assert.Empty(t, third)

	assertExists(t, filepath.Join(target, "Images", "b.png"))
	assertExists(t, filepath.Join(target, "Others", "c.txt"))
}

func TestSortAllFilesCollision(t *testing.T) {
	setup := func(t *testing.T, collision config.Collision) (string, *organize.Organizer) {
		target := t.TempDir()
		writeFile(t, filepath.Join(target, "Images", "photo.jpg"), "sorted", time.Hour)
		writeFile(t, filepath.Join(target, "camera", "photo.jpg"), "incoming", 0)
		rules := imageRules()
		rules.Settings.Collision = collision
		return target, newOrganizer(t, newConfig(t, target, rules))
	}

	t.Run("fail", func(t *testing.T) {
		target, o := setup(t, config.CollisionFail)
		_, err := o.SortAllFiles()
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrDestinationUsed)
		assert.Contains(t, err.Error(), filepath.Join(target, "camera", "photo.jpg"))

		content, _ := os.ReadFile(filepath.Join(target, "Images", "photo.jpg"))
		assert.Equal(t, "sorted", string(content))
		assertExists(t, filepath.Join(target, "camera", "photo.jpg"))
	})

	t.Run("rename", func(t *testing.T) {
		target, o := setup(t, config.CollisionRename)
		moves, err := o.SortAllFiles()
		require.NoError(t, err)
		require.Len(t, moves, 1)
		assert.Equal(t, filepath.Join(target, "Images", "photo_1.jpg"), moves[0].DestinationPath)

		content, _ := os.ReadFile(filepath.Join(target, "Images", "photo_1.jpg"))
		assert.Equal(t, "incoming", string(content))
	})

	t.Run("skip", func(t *testing.T) {
		target, o := setup(t, config.CollisionSkip)
		moves, err := o.SortAllFiles()
		require.NoError(t, err)
		assert.Empty(t, moves)
		assertExists(t, filepath.Join(target, "camera", "photo.jpg"))
	})
}

func TestSortAllFilesVanishedFile(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "a.jpg"), "a", 0)
	writeFile(t, filepath.Join(target, "b.jpg"), "b", time.Hour)
	o := newOrganizer(t, newConfig(t, target, imageRules()))

	require.NoError(t, os.Remove(filepath.Join(target, "a.jpg")))

	moves, err := o.SortAllFiles()
	require.Error(t, err)
	assert.Empty(t, moves, "the pass stops at the first failure")
	assert.Equal(t, errors.FileOperationFailed, errors.KindOf(err))
	assertExists(t, filepath.Join(target, "b.jpg"))
}

func TestMoveDuplicatesKeepsNewest(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "a.txt"), "identical", 2*time.Hour)
	writeFile(t, filepath.Join(target, "b.txt"), "identical", time.Hour)
	writeFile(t, filepath.Join(target, "c.txt"), "different", 3*time.Hour)

	o := newOrganizer(t, newConfig(t, target, nil))
	moves, err := o.MoveDuplicates()
	require.NoError(t, err)

	require.Len(t, moves, 1)
	assert.Equal(t, types.DedupePass, moves[0].Pass)
	assertExists(t, filepath.Join(target, "b.txt"))
	assertExists(t, filepath.Join(target, "c.txt"))
	assertExists(t, filepath.Join(target, "Duplicates", "a.txt"))
	assertMissing(t, filepath.Join(target, "a.txt"))
}

func TestMoveDuplicatesUniqueNames(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "x", "same.txt"), "dup", 0)
	writeFile(t, filepath.Join(target, "y", "same.txt"), "dup", time.Hour)
	writeFile(t, filepath.Join(target, "z", "same.txt"), "dup", 2*time.Hour)
	writeFile(t, filepath.Join(target, "Duplicates", "same_1.txt"), "unrelated", 3*time.Hour)

	o := newOrganizer(t, newConfig(t, target, nil))
	moves, err := o.MoveDuplicates()
	require.NoError(t, err)
	require.Len(t, moves, 2)

	assert.Equal(t, filepath.Join(target, "Duplicates", "same.txt"), moves[0].DestinationPath)
	assert.Equal(t, filepath.Join(target, "Duplicates", "same_2.txt"), moves[1].DestinationPath)
	assertExists(t, filepath.Join(target, "x", "same.txt"))

	content, _ := os.ReadFile(filepath.Join(target, "Duplicates", "same_1.txt"))
	assert.Equal(t, "unrelated", string(content), "existing files are never overwritten")
}

func TestMoveDuplicatesRespectsIgnore(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "keep.tmp"), "dup", 2*time.Hour)
	writeFile(t, filepath.Join(target, "newer.txt"), "dup", time.Hour)
	writeFile(t, filepath.Join(target, "older.txt"), "dup", 3*time.Hour)

	o := newOrganizer(t, newConfig(t, target, &config.Rules{Ignore: []string{"*.tmp"}}))
	moves, err := o.MoveDuplicates()
	require.NoError(t, err)

	require.Len(t, moves, 1)
	assertExists(t, filepath.Join(target, "keep.tmp"))
	assertExists(t, filepath.Join(target, "newer.txt"))
	assertExists(t, filepath.Join(target, "Duplicates", "older.txt"))
}

func TestMoveDuplicatesParkedCopiesStay(t *testing.T) {
	target := t.TempDir()
	// A parked copy newer than the original elsewhere must not displace it
	writeFile(t, filepath.Join(target, "Duplicates", "a.txt"), "dup", 0)
	writeFile(t, filepath.Join(target, "docs", "a.txt"), "dup", time.Hour)

	o := newOrganizer(t, newConfig(t, target, nil))
	moves, err := o.MoveDuplicates()
	require.NoError(t, err)

	assert.Empty(t, moves)
	assertExists(t, filepath.Join(target, "docs", "a.txt"))
	assertExists(t, filepath.Join(target, "Duplicates", "a.txt"))
	assertMissing(t, filepath.Join(target, "Duplicates", "a_1.txt"))
}

func TestMoveDuplicatesVerifyContent(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "a.bin"), "payload", 0)
	writeFile(t, filepath.Join(target, "b.bin"), "payload", time.Hour)

	rules := &config.Rules{Settings: config.Settings{VerifyContent: true}}
	o := newOrganizer(t, newConfig(t, target, rules))
	moves, err := o.MoveDuplicates()
	require.NoError(t, err)

	require.Len(t, moves, 1)
	assertExists(t, filepath.Join(target, "Duplicates", "b.bin"))
}

func TestMoveDuplicatesChecksumFailureAborts(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "a.txt"), "a", 0)
	o := newOrganizer(t, newConfig(t, target, nil))
	require.NoError(t, os.Remove(filepath.Join(target, "a.txt")))

	_, err := o.MoveDuplicates()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemoveEmptyFolders(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, "leaf"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(target, "chain", "of", "empties"), 0o755))
	writeFile(t, filepath.Join(target, "full", "file.txt"), "x", 0)
	require.NoError(t, os.MkdirAll(filepath.Join(target, "full", "empty"), 0o755))
	// Sibling names that sort before their parent lexically
	require.NoError(t, os.MkdirAll(filepath.Join(target, "a-b", "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(target, "a", "b"), 0o755))

	o := newOrganizer(t, newConfig(t, target, nil))
	removed, err := o.RemoveEmptyFolders()
	require.NoError(t, err)

	assertMissing(t, filepath.Join(target, "leaf"))
	assertMissing(t, filepath.Join(target, "chain"))
	assertMissing(t, filepath.Join(target, "a"))
	assertMissing(t, filepath.Join(target, "a-b"))
	assertMissing(t, filepath.Join(target, "full", "empty"))
	assertExists(t, filepath.Join(target, "full", "file.txt"))
	assertExists(t, target)
	assert.Len(t, removed, 9)
}

func TestRemoveEmptyFoldersKeepsEmptyTarget(t *testing.T) {
	target := t.TempDir()
	o := newOrganizer(t, newConfig(t, target, nil))
	removed, err := o.RemoveEmptyFolders()
	require.NoError(t, err)
	assert.Empty(t, removed)
	assertExists(t, target)
}

func TestRunAllPasses(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "inbox", "photo.jpg"), "same", 0)
	writeFile(t, filepath.Join(target, "inbox", "copy.jpg"), "same", time.Hour)
	writeFile(t, filepath.Join(target, "inbox", "notes.md"), "notes", 0)
	writeFile(t, filepath.Join(target, "scratch.tmp"), "tmp", 0)
	cfg := newConfig(t, target, imageRules())

	report, err := newOrganizer(t, cfg).Run(organize.AllPasses())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Scanned)
	assert.Len(t, report.MovesFor(types.SortPass), 3)
	assert.Len(t, report.MovesFor(types.DedupePass), 1)
	assert.Equal(t, int64(4), report.DuplicateBytes())
	assert.Contains(t, report.RemovedDirs, filepath.Join(target, "inbox"))
	assert.False(t, report.Finished.Before(report.Started))

	assertExists(t, filepath.Join(target, "Images", "photo.jpg"))
	assertExists(t, filepath.Join(target, "Duplicates", "copy.jpg"))
	assertExists(t, filepath.Join(target, "Others", "notes.md"))
	assertExists(t, filepath.Join(target, "scratch.tmp"))
	assertMissing(t, filepath.Join(target, "inbox"))

	// A second full run finds nothing to do
	again, err := newOrganizer(t, cfg).Run(organize.AllPasses())
	require.NoError(t, err)
	assert.Empty(t, again.Moves)
	assert.Empty(t, again.RemovedDirs)
}

func TestRunSelectedPasses(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "a.txt"), "same", 0)
	writeFile(t, filepath.Join(target, "b.txt"), "same", time.Hour)
	require.NoError(t, os.MkdirAll(filepath.Join(target, "empty"), 0o755))

	report, err := newOrganizer(t, newConfig(t, target, nil)).Run(organize.Passes{Dedupe: true})
	require.NoError(t, err)

	assert.Len(t, report.Moves, 1)
	assert.Empty(t, report.RemovedDirs)
	assertExists(t, filepath.Join(target, "a.txt"))
	assertExists(t, filepath.Join(target, "empty"))
}

func TestRunReportsPartialProgress(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "first.jpg"), "1", 0)
	writeFile(t, filepath.Join(target, "camera", "photo.jpg"), "2", time.Hour)
	writeFile(t, filepath.Join(target, "Images", "photo.jpg"), "3", 2*time.Hour)

	report, err := newOrganizer(t, newConfig(t, target, imageRules())).Run(organize.AllPasses())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort pass failed")
	require.Len(t, report.Moves, 1, "moves before the failure are reported")
	assertExists(t, filepath.Join(target, "Images", "first.jpg"))
}

func TestOrganizerLogsMoves(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "photo.jpg"), "x", 0)

	var buf bytes.Buffer
	o, err := organize.New(newConfig(t, target, imageRules()), log.NewLogger(log.WithOutput(&buf)))
	require.NoError(t, err)
	_, err = o.SortAllFiles()
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Moving")
	assert.Contains(t, buf.String(), "run="+o.RunID())
}

func TestMoveDuplicatesCreatesFolderOnlyWhenNeeded(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "a.txt"), "one", 0)
	writeFile(t, filepath.Join(target, "b.txt"), "two", 0)

	moves, err := newOrganizer(t, newConfig(t, target, nil)).MoveDuplicates()
	require.NoError(t, err)
	assert.Empty(t, moves)
	assertMissing(t, filepath.Join(target, "Duplicates"))
}

func TestRunThroughSymlinkedTarget(t *testing.T) {
	real := t.TempDir()
	writeFile(t, filepath.Join(real, "photo.jpg"), "jpg", 0)
	writeFile(t, filepath.Join(real, "inbox", "doc.pdf"), "pdf", 0)
	link := filepath.Join(t.TempDir(), "inbox-link")
	require.NoError(t, os.Symlink(real, link))

	report, err := newOrganizer(t, newConfig(t, link, imageRules())).Run(organize.AllPasses())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Scanned)
	assert.Len(t, report.MovesFor(types.SortPass), 2)
	assertExists(t, filepath.Join(real, "Images", "photo.jpg"))
	assertExists(t, filepath.Join(real, "Others", "doc.pdf"))
	assertMissing(t, filepath.Join(real, "inbox"))
	assertExists(t, link)
}

func TestScanSkipsRunLock(t *testing.T) {
	target := t.TempDir()
	// Lock files live in the temp dir; make that the target itself
	t.Setenv("TMPDIR", target)
	lock, err := organize.Lock(target)
	require.NoError(t, err)
	defer lock.Unlock()
	writeFile(t, filepath.Join(target, "doc.pdf"), "pdf", 0)

	o := newOrganizer(t, newConfig(t, target, imageRules()))
	require.Len(t, o.Files(), 1)

	_, err = o.Run(organize.AllPasses())
	require.NoError(t, err)
	assertExists(t, lock.Path())
	assertExists(t, filepath.Join(target, "Others", "doc.pdf"))
}
