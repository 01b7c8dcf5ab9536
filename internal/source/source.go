package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
)

// Source is the packaged asset container.
//
// List returns entry base names under folder in the container's own order,
// which is not guaranteed to be sorted. An empty result or an error means
// the folder is missing. Open returns a readable stream for a slash-separated
// path and fails with an error wrapping fs.ErrNotExist if it is absent.
type Source interface {
	List(folder string) ([]string, error)
	Open(name string) (io.ReadCloser, error)
}

// DirChecker is implemented by sources that can tell directories from files
// without listing them. Walk uses it when available; otherwise a name that
// lists at least one child is treated as a directory.
type DirChecker interface {
	IsDir(name string) (bool, error)
}

// FS adapts an io/fs.FS to Source.
type FS struct {
	fsys fs.FS
}

// NewFS wraps fsys. Paths passed to List and Open are slash-separated and
// relative to the root of fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// List returns the names of the entries directly under folder, in the order
// fs.ReadDir yields them (sorted by name for every fs.FS in the standard
// library).
func (s *FS) List(folder string) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, cleanName(folder))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Open opens the named entry for reading. Directories cannot be opened as
// entries; reading one would otherwise fail halfway through a copy.
func (s *FS) Open(name string) (io.ReadCloser, error) {
	f, err := s.fsys.Open(cleanName(name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", name, errIsDirectory)
	}
	return f, nil
}

// IsDir reports whether name is a directory inside the container.
func (s *FS) IsDir(name string) (bool, error) {
	info, err := fs.Stat(s.fsys, cleanName(name))
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

var errIsDirectory = errors.New("is a directory")

// cleanName converts a caller path into an fs.FS-valid name: no leading
// slash, no trailing slash, "." for the root.
func cleanName(name string) string {
	name = path.Clean("/" + name)
	if name == "/" {
		return "."
	}
	return name[1:]
}
