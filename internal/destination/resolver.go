// Package destination resolves the writable directory that receives a
// deployed resource pack.
//
// The resolver derives exactly one child path from an opaque storage root
// supplied by the host:
//
//	<storageRoot>/<dirName>    (dirName defaults to "assets")
//
// and guarantees that, when Resolve returns successfully, the path exists,
// is a directory and accepts new files. Every failure is reported as a
// model.DeploymentError of kind DirectoryUnavailable.
package destination

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// DefaultDirName is the child directory created under the storage root.
const DefaultDirName = "assets"

// dirPerm is the permission used for created directories. Consumers only
// need to read the files, but the owning process rewrites them every run.
const dirPerm os.FileMode = 0o755

// probePattern names the temporary file used to check writability. It is
// removed before Resolve returns.
const probePattern = ".assetdeploy-probe-*"

// Path returns the destination path for a storage root without touching
// the filesystem. An empty dirName selects DefaultDirName.
func Path(storageRoot, dirName string) string {
	if dirName == "" {
		dirName = DefaultDirName
	}
	return filepath.Join(storageRoot, dirName)
}

// Resolve computes <storageRoot>/<dirName> on fsys and makes sure it is a
// writable directory.
//
// Behavior:
//   - path exists and is a directory → reused, Created=false
//   - path does not exist → created with MkdirAll, Created=true
//   - path exists but is not a directory → DirectoryUnavailable
//   - creation or the writability probe fails → DirectoryUnavailable
//
// A concurrent creator winning the MkdirAll race is not an error; the
// directory is re-checked after creation instead of trusting the error.
func Resolve(fsys afero.Fs, storageRoot, dirName string) (model.DeploymentTarget, error) {
	path := Path(storageRoot, dirName)
	target := model.DeploymentTarget{Path: path}

	info, err := fsys.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return target, model.DirectoryUnavailable(path, fmt.Errorf("path exists and is not a directory"))
		}
	case errors.Is(err, fs.ErrNotExist):
		if mkErr := fsys.MkdirAll(path, dirPerm); mkErr != nil {
			// MkdirAll can fail because another process created the path
			// in between; only the re-check below decides.
			if info, statErr := fsys.Stat(path); statErr != nil || !info.IsDir() {
				return target, model.DirectoryUnavailable(path, mkErr)
			}
		} else {
			target.Created = true
		}
		info, err = fsys.Stat(path)
		if err != nil {
			return target, model.DirectoryUnavailable(path, err)
		}
		if !info.IsDir() {
			return target, model.DirectoryUnavailable(path, fmt.Errorf("path exists and is not a directory"))
		}
	default:
		return target, model.DirectoryUnavailable(path, err)
	}

	if err := probeWritable(fsys, path); err != nil {
		return target, model.DirectoryUnavailable(path, err)
	}

	return target, nil
}

// probeWritable creates and removes a temporary file inside dir. A read-only
// mount or exhausted storage fails here rather than on the first entry.
func probeWritable(fsys afero.Fs, dir string) error {
	f, err := afero.TempFile(fsys, dir, probePattern)
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	name := f.Name()
	closeErr := f.Close()
	if err := fsys.Remove(name); err != nil {
		return fmt.Errorf("failed to remove writability probe %s: %w", name, err)
	}
	if closeErr != nil {
		return fmt.Errorf("directory is not writable: %w", closeErr)
	}
	return nil
}
