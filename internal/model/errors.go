package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a deployment failure. Every error returned by the
// deployer is a *DeploymentError carrying exactly one kind.
type ErrorKind string

const (
	// KindDirectoryUnavailable means the destination root cannot be created
	// or used (permissions, exhausted storage, collision with a file).
	KindDirectoryUnavailable ErrorKind = "DirectoryUnavailable"

	// KindSourceFolderMissing means the packaged source folder is absent or
	// empty. This is a packaging defect, not a runtime condition.
	KindSourceFolderMissing ErrorKind = "SourceFolderMissing"

	// KindEntryCopyFailed means a specific entry could not be read or written.
	KindEntryCopyFailed ErrorKind = "EntryCopyFailed"
)

// Sentinel errors matched by DeploymentError.Is. Callers use
// errors.Is(err, model.ErrSourceFolderMissing) without caring about the
// concrete error type.
var (
	ErrDirectoryUnavailable = errors.New("destination directory unavailable")
	ErrSourceFolderMissing  = errors.New("source folder missing")
	ErrEntryCopyFailed      = errors.New("entry copy failed")

	// ErrInvalidEntryName is the cause attached to an entry whose name
	// contains a path separator or would escape the destination root.
	ErrInvalidEntryName = errors.New("invalid entry name")

	// ErrResourceNotFound is returned by the resource loader when neither the
	// deployed directory nor the packaged source holds the resource.
	ErrResourceNotFound = errors.New("resource not found")
)

// DeploymentError is the single typed failure returned by a deployment.
type DeploymentError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Path is the filesystem or source path involved, if any.
	Path string

	// Entry is the entry name for KindEntryCopyFailed.
	Entry string

	// Err is the underlying cause. For the collect policy it is an
	// errors.Join of every per-entry failure.
	Err error
}

// Error satisfies the error interface.
func (e *DeploymentError) Error() string {
	var msg string
	switch e.Kind {
	case KindDirectoryUnavailable:
		msg = fmt.Sprintf("destination directory %q unavailable", e.Path)
	case KindSourceFolderMissing:
		msg = fmt.Sprintf("source folder %q missing or empty", e.Path)
	case KindEntryCopyFailed:
		if e.Entry != "" {
			msg = fmt.Sprintf("copy of entry %q failed", e.Entry)
		} else {
			msg = "one or more entries failed to copy"
		}
	default:
		msg = "deployment failed"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// Is maps the error kind onto its sentinel so errors.Is works on the kind
// as well as on the wrapped cause.
func (e *DeploymentError) Is(target error) bool {
	switch target {
	case ErrDirectoryUnavailable:
		return e.Kind == KindDirectoryUnavailable
	case ErrSourceFolderMissing:
		return e.Kind == KindSourceFolderMissing
	case ErrEntryCopyFailed:
		return e.Kind == KindEntryCopyFailed
	}
	return false
}

// DirectoryUnavailable builds a KindDirectoryUnavailable error.
func DirectoryUnavailable(path string, err error) *DeploymentError {
	return &DeploymentError{Kind: KindDirectoryUnavailable, Path: path, Err: err}
}

// SourceFolderMissing builds a KindSourceFolderMissing error.
func SourceFolderMissing(folder string, err error) *DeploymentError {
	return &DeploymentError{Kind: KindSourceFolderMissing, Path: folder, Err: err}
}

// EntryCopyFailed builds a KindEntryCopyFailed error for one entry.
func EntryCopyFailed(entry string, err error) *DeploymentError {
	return &DeploymentError{Kind: KindEntryCopyFailed, Entry: entry, Err: err}
}

// ExitCodeFor maps an error to the CLI exit code for its kind.
// Errors that are not deployment errors map to ExitGeneralError.
func ExitCodeFor(err error) ExitCode {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	switch {
	case errors.Is(err, ErrDirectoryUnavailable):
		return ExitDirectoryUnavailable
	case errors.Is(err, ErrSourceFolderMissing):
		return ExitSourceFolderMissing
	case errors.Is(err, ErrEntryCopyFailed):
		return ExitEntryCopyFailed
	case errors.Is(err, ErrResourceNotFound):
		return ExitNotFound
	}
	return ExitGeneralError
}
