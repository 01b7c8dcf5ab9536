package destination

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// TestPath verifies the pure path construction, including the default
// directory name.
func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "assets"), Path("/data", ""))
	assert.Equal(t, filepath.Join("/data", "packs"), Path("/data", "packs"))
}

// TestResolve_CreatesMissingDirectory checks that the destination is
// created on first resolution and reported as such.
func TestResolve_CreatesMissingDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/data", 0o755))

	target, err := Resolve(fsys, "/data", "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/data", "assets"), target.Path)
	assert.True(t, target.Created)

	info, err := fsys.Stat(target.Path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestResolve_Idempotent verifies that a second call returns the same path,
// does not fail, and reports that nothing was created.
func TestResolve_Idempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()

	first, err := Resolve(fsys, "/data", DefaultDirName)
	require.NoError(t, err)
	second, err := Resolve(fsys, "/data", DefaultDirName)
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.True(t, first.Created)
	assert.False(t, second.Created)
}

// TestResolve_LeavesNoProbe ensures the writability probe is cleaned up,
// so a resolved directory with no deployed entries stays empty.
func TestResolve_LeavesNoProbe(t *testing.T) {
	fsys := afero.NewMemMapFs()

	target, err := Resolve(fsys, "/data", "")
	require.NoError(t, err)

	entries, err := afero.ReadDir(fsys, target.Path)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestResolve_FileCollision checks that a regular file occupying the
// destination path yields DirectoryUnavailable.
func TestResolve_FileCollision(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/data/assets", []byte("not a dir"), 0o644))

	_, err := Resolve(fsys, "/data", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDirectoryUnavailable)
}

// TestResolve_ReadOnly covers both read-only cases: the directory cannot be
// created, and an existing directory cannot be written to.
func TestResolve_ReadOnly(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		base := afero.NewMemMapFs()
		require.NoError(t, base.MkdirAll("/data", 0o755))

		_, err := Resolve(afero.NewReadOnlyFs(base), "/data", "")
		assert.ErrorIs(t, err, model.ErrDirectoryUnavailable)
	})

	t.Run("existing directory", func(t *testing.T) {
		base := afero.NewMemMapFs()
		require.NoError(t, base.MkdirAll("/data/assets", 0o755))

		_, err := Resolve(afero.NewReadOnlyFs(base), "/data", "")
		assert.ErrorIs(t, err, model.ErrDirectoryUnavailable)
	})
}

// TestResolve_OsFs exercises the resolver against the real filesystem,
// using t.TempDir() as the host's storage root.
func TestResolve_OsFs(t *testing.T) {
	root := t.TempDir()

	target, err := Resolve(afero.NewOsFs(), root, "")
	require.NoError(t, err)
	assert.True(t, target.Created)

	info, err := os.Stat(filepath.Join(root, "assets"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(target.Path)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")
}
