package source

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// OpenBundle reads a .tar.zst packaged asset container from r and exposes
// its contents as an FS source. The archive is fully loaded into an
// in-memory filesystem, so r can be closed as soon as OpenBundle returns.
// The decompressed bundle must therefore fit in memory; the bounded copy
// buffer only limits memory use when deploying from the embedded pack.
//
// Only directories and regular files are kept; links and device entries
// are skipped. Entry names are cleaned and made relative, so an archive
// cannot place files outside its own root.
func OpenBundle(r io.Reader) (*FS, error) {
	zst, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open .tar.zst bundle: %w", err)
	}
	defer zst.Close()

	memfs := afero.NewMemMapFs()
	tr := tar.NewReader(zst)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading .tar.zst entry: %w", err)
		}

		name := bundleName(hdr.Name)
		if name == "" {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := memfs.MkdirAll(name, 0o755); err != nil {
				return nil, fmt.Errorf("error creating bundle directory %q: %w", name, err)
			}
		case tar.TypeReg:
			// afero.WriteReader creates missing parent directories, which
			// covers archives that omit explicit directory headers.
			if err := afero.WriteReader(memfs, name, tr); err != nil {
				return nil, fmt.Errorf("error reading bundle entry %q: %w", name, err)
			}
		}
	}

	return NewFS(afero.NewIOFS(memfs)), nil
}

// OpenBundleFile opens a .tar.zst bundle from disk.
func OpenBundleFile(filename string) (*FS, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle %s: %w", filename, err)
	}
	defer func() { _ = f.Close() }()

	return OpenBundle(f)
}

// bundleName normalizes a tar header name into a relative slash path.
// The archive root itself ("./" or "/") maps to "".
func bundleName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
