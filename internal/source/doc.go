// Package source provides the read-only packaged asset container that a
// deployment copies from.
//
// The container is modelled as an opaque capability with two operations,
// List and Open, mirroring a platform asset manager: List returns the names
// directly under a folder, Open returns a byte stream for one entry.
//
// Adapters:
//   - FS wraps any io/fs.FS (embed.FS, os.DirFS, zip.Reader, fstest.MapFS)
//   - OpenBundle reads a .tar.zst archive into memory and exposes it as FS
//   - Walk turns List results into a tree walk for recursive deployments
package source
