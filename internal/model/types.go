// Package model defines the domain types for the assetdeploy CLI.
//
// All entities in this package describe one deployment of a packaged
// resource pack into a writable directory. These types are used throughout
// the application for passing data between components and are rendered
// as text, JSON or YAML by the CLI.
package model

import (
	"fmt"
	"strings"
	"time"
)

// FailurePolicy decides what the deployer does when a single entry cannot
// be copied.
//
//	abort   → stop at the first failed entry (default)
//	collect → keep copying, then report every failure together
type FailurePolicy string

const (
	// PolicyAbort stops the whole deployment at the first failed entry.
	// A partially deployed pack is not safe for the consuming engine.
	PolicyAbort FailurePolicy = "abort"

	// PolicyCollect copies every entry it can and returns the failures
	// alongside a partial DeploymentReport.
	PolicyCollect FailurePolicy = "collect"
)

// String returns the string representation of FailurePolicy.
func (p FailurePolicy) String() string {
	return string(p)
}

// IsValid checks whether the FailurePolicy value is one of the
// predefined policies.
func (p FailurePolicy) IsValid() bool {
	switch p {
	case PolicyAbort, PolicyCollect:
		return true
	default:
		return false
	}
}

// ParseFailurePolicy converts a string to a FailurePolicy.
// Returns an error if the string does not match any valid policy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	policy := FailurePolicy(strings.ToLower(strings.TrimSpace(s)))
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid failure policy: %q (valid: abort, collect)", s)
	}
	return policy, nil
}

// AssetEntry identifies one item inside the packaged source folder.
type AssetEntry struct {
	// Name is the entry name relative to the source folder. In flat mode
	// this is the base name exactly as listed by the source; in recursive
	// mode it is a slash-separated relative path ("textures/logo.png").
	Name string `json:"name" yaml:"name"`

	// Path is the full slash-separated path inside the source container
	// ("resourcepack/logo.png"). This is what gets passed to Source.Open.
	Path string `json:"path" yaml:"path"`
}

// DeploymentTarget is the writable directory that receives the extracted
// pack. It is owned by the host's storage area.
type DeploymentTarget struct {
	// Path is the absolute (or storage-root-relative) directory path.
	Path string `json:"path" yaml:"path"`

	// Created is true when this resolution created the directory. A second
	// resolution of the same path reports false.
	Created bool `json:"created" yaml:"created"`
}

// EntryResult records one successfully copied entry.
type EntryResult struct {
	// Name is the entry name, matching AssetEntry.Name.
	Name string `json:"name" yaml:"name"`

	// Bytes is the number of bytes written to the destination file.
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// EntryFailure records one entry that could not be copied. Only the
// collect policy produces these; the abort policy returns the error instead.
type EntryFailure struct {
	// Name is the entry name, matching AssetEntry.Name.
	Name string `json:"name" yaml:"name"`

	// Error is the human-readable cause.
	Error string `json:"error" yaml:"error"`
}

// DeploymentReport summarizes a deploy run. Nothing in it is retained by
// the deployer after Deploy returns.
type DeploymentReport struct {
	// Target is the directory the pack was deployed into.
	Target DeploymentTarget `json:"target" yaml:"target"`

	// SourceFolder is the folder inside the packaged container that was
	// listed (normally "resourcepack").
	SourceFolder string `json:"sourceFolder" yaml:"sourceFolder"`

	// Count is the number of entries copied.
	Count int `json:"count" yaml:"count"`

	// Bytes is the total number of bytes written across all entries.
	Bytes int64 `json:"bytes" yaml:"bytes"`

	// Entries lists every copied entry in listing order.
	Entries []EntryResult `json:"entries,omitempty" yaml:"entries,omitempty"`

	// Failures lists entries that could not be copied (collect policy only).
	Failures []EntryFailure `json:"failures,omitempty" yaml:"failures,omitempty"`

	// StartedAt and FinishedAt bracket the run.
	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`
}

// Record appends a successfully copied entry and updates the totals.
func (r *DeploymentReport) Record(name string, n int64) {
	r.Entries = append(r.Entries, EntryResult{Name: name, Bytes: n})
	r.Count++
	r.Bytes += n
}

// Fail appends a failed entry.
func (r *DeploymentReport) Fail(name string, err error) {
	r.Failures = append(r.Failures, EntryFailure{Name: name, Error: err.Error()})
}

// Duration returns how long the run took.
func (r *DeploymentReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ConsumerContainer is a running container that consumes deployed assets.
// It is reconstructed from Docker labels at runtime.
type ConsumerContainer struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId" yaml:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName" yaml:"containerName"`

	// StorageRoot is the storage root inside the container. Assets land in
	// <StorageRoot>/<dirName>.
	StorageRoot string `json:"storageRoot" yaml:"storageRoot"`

	// Status is the Docker container state ("running", "exited", ...).
	Status string `json:"status" yaml:"status"`
}

// PushResult records one container that received the deployed assets.
type PushResult struct {
	Container ConsumerContainer `json:"container" yaml:"container"`
	Path      string            `json:"path" yaml:"path"`
}

// ExitCode defines standard CLI exit codes.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitDirectoryUnavailable indicates the destination root could not be
	// created or is not a writable directory.
	ExitDirectoryUnavailable ExitCode = 2

	// ExitSourceFolderMissing indicates the packaged source folder is
	// absent or empty (a packaging defect).
	ExitSourceFolderMissing ExitCode = 3

	// ExitEntryCopyFailed indicates at least one entry could not be copied.
	ExitEntryCopyFailed ExitCode = 4

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 5

	// ExitNotFound indicates a requested resource or container does not exist.
	ExitNotFound ExitCode = 6

	// ExitLockBusy indicates another deploy holds the storage root lock.
	ExitLockBusy ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
