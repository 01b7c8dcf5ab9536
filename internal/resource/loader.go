// Package resource reads individual resources for the consuming engine.
//
// Lookup order:
//  1. the deployed directory on the filesystem (<storageRoot>/assets/<name>)
//  2. the packaged source the pack was deployed from (resourcepack/<name>)
//  3. model.ErrResourceNotFound
//
// The filesystem wins so that files edited or replaced after deployment
// take effect; the packaged fallback keeps the engine usable when the
// deployment has not run yet or failed.
package resource

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/shinji-kodama/assetdeploy/internal/model"
	"github.com/shinji-kodama/assetdeploy/internal/source"
)

// Origin tells where a resource was loaded from.
type Origin string

const (
	OriginFilesystem Origin = "filesystem"
	OriginPackaged   Origin = "packaged"
)

// Loader resolves resource names against a deployed directory with a
// packaged fallback.
type Loader struct {
	fsys     afero.Fs
	dir      string
	fallback source.Source
	folder   string
}

// NewLoader creates a Loader. fallback may be nil, in which case only the
// filesystem is consulted.
func NewLoader(fsys afero.Fs, dir string, fallback source.Source, folder string) *Loader {
	return &Loader{fsys: fsys, dir: dir, fallback: fallback, folder: folder}
}

// Load returns the resource bytes and where they came from.
func (l *Loader) Load(name string) ([]byte, Origin, error) {
	clean, err := cleanResourceName(name)
	if err != nil {
		return nil, "", err
	}

	data, fsErr := afero.ReadFile(l.fsys, filepath.Join(l.dir, filepath.FromSlash(clean)))
	if fsErr == nil {
		return data, OriginFilesystem, nil
	}

	if l.fallback == nil {
		return nil, "", fmt.Errorf("%w: %s: %v", model.ErrResourceNotFound, clean, fsErr)
	}

	data, srcErr := l.readPackaged(clean)
	if srcErr == nil {
		return data, OriginPackaged, nil
	}
	return nil, "", fmt.Errorf("%w: %s (filesystem: %v; packaged: %v)", model.ErrResourceNotFound, clean, fsErr, srcErr)
}

// Bytes returns the resource contents.
func (l *Loader) Bytes(name string) ([]byte, error) {
	data, _, err := l.Load(name)
	return data, err
}

// String returns the resource contents as a string.
func (l *Loader) String(name string) (string, error) {
	data, err := l.Bytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *Loader) readPackaged(name string) ([]byte, error) {
	p := name
	if l.folder != "" {
		p = l.folder + "/" + name
	}
	rc, err := l.fallback.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// cleanResourceName normalizes a slash-separated resource name and rejects
// names that are absolute or climb out of the resource root.
func cleanResourceName(name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if slashed == "" || strings.HasPrefix(slashed, "/") {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidEntryName, name)
	}
	clean := path.Clean(slashed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidEntryName, name)
	}
	return clean, nil
}
