// Package pack holds the resource pack bundled into the assetdeploy binary.
//
// The pack lives under resourcepack/ next to this file and is compiled in
// with go:embed. It plays the role of the read-only packaged asset store:
// the deployer lists and opens it, it is never written to.
package pack

import (
	"embed"

	"github.com/shinji-kodama/assetdeploy/internal/source"
)

// Folder is the folder name inside FS that holds the pack.
const Folder = "resourcepack"

// FS is the embedded packaged container.
//
//go:embed resourcepack
var FS embed.FS

// Source returns the embedded pack as a deployable source.
func Source() *source.FS {
	return source.NewFS(FS)
}
