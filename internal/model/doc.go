// Package model defines the domain types and value objects for the
// assetdeploy CLI.
//
// This package contains pure data structures with no external dependencies.
// Reports (DeploymentReport, EntryResult, EntryFailure) are transient: they
// describe a single deploy run and nothing is persisted between runs. There
// is no manifest on disk, so every run re-lists and re-copies the pack.
//
// The package also defines the deployment error taxonomy (DeploymentError
// and its ErrorKind values), the exit codes (ExitCode) and a custom error
// type (CLIError) that carries exit codes for proper OS process exit handling.
package model
