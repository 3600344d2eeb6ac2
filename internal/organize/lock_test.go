package organize_test

import (
	"os"
	"path/filepath"
	"testing"

	"dirtidy/internal/organize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock(t *testing.T) {
	target := t.TempDir()

	first, err := organize.Lock(target)
	require.NoError(t, err)

	_, err = organize.Lock(target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already organizing")

	// Different targets do not contend
	other, err := organize.Lock(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, other.Unlock())

	require.NoError(t, first.Unlock())
	again, err := organize.Lock(target)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}

func TestLockPath(t *testing.T) {
	target := t.TempDir()

	a, err := organize.LockPath(target)
	require.NoError(t, err)
	b, err := organize.LockPath(filepath.Join(target, "sub", ".."))
	require.NoError(t, err)
	assert.Equal(t, a, b, "equivalent paths share a lock")
	assert.NotContains(t, a, target)
}

func TestFactoryScansEachTime(t *testing.T) {
	target := t.TempDir()
	cfg := newConfig(t, target, imageRules())
	factory := organize.NewFactory(cfg, nil)

	runner, err := factory()
	require.NoError(t, err)
	report, err := runner.Run(organize.AllPasses())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)

	writeFile(t, filepath.Join(target, "new.png"), "png", 0)

	runner, err = factory()
	require.NoError(t, err)
	report, err = runner.Run(organize.AllPasses())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assertExists(t, filepath.Join(target, "Images", "new.png"))
}

func TestLockSharedThroughSymlink(t *testing.T) {
	real := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(real, link))

	lock, err := organize.Lock(real)
	require.NoError(t, err)
	defer lock.Unlock()

	_, err = organize.Lock(link)
	require.Error(t, err)
}
