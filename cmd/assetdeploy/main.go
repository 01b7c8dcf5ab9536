// Package main is the entry point for the assetdeploy CLI.
//
// The binary deploys a packaged resource pack into a writable asset
// directory and can push the result into consumer containers. All
// functionality lives in the internal/cli package.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during release builds and default to "dev", "none", and "unknown".
package main

import (
	"github.com/shinji-kodama/assetdeploy/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
