// Package deploy copies a packaged resource pack into a writable directory.
//
// A Deployer resolves the destination under a storage root, lists the
// source folder ("resourcepack" by default) and streams every entry into a
// file of the same name:
//
//	source:  resourcepack/<entry>
//	target:  <storageRoot>/assets/<entry>
//
// Every run re-lists and re-copies; existing files are truncated and
// overwritten. There is no manifest and no incremental update.
//
// Failure policy is explicit. PolicyAbort (default) stops at the first
// failed entry and returns EntryCopyFailed. PolicyCollect copies everything
// it can and returns the report together with an EntryCopyFailed error
// joining all causes.
package deploy

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/shinji-kodama/assetdeploy/internal/destination"
	"github.com/shinji-kodama/assetdeploy/internal/model"
	"github.com/shinji-kodama/assetdeploy/internal/source"
)

// DefaultSourceFolder is the folder listed inside the packaged container.
const DefaultSourceFolder = "resourcepack"

// Deployer deploys one packaged source into destination directories.
// A Deployer holds no state between Deploy calls and is safe for concurrent
// use; calls against the same target are serialized.
type Deployer struct {
	src    source.Source
	fsys   afero.Fs
	opts   options
	logger *log.Logger
}

// New creates a Deployer that reads from src and writes through fsys.
func New(src source.Source, fsys afero.Fs, opts ...Option) *Deployer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Deployer{src: src, fsys: fsys, opts: o, logger: logger}
}

// Deploy copies every entry of the source folder into <storageRoot>/<dirName>.
//
// Steps:
//  1. Resolve the destination (DirectoryUnavailable on failure)
//  2. List the source folder (SourceFolderMissing if empty or absent)
//  3. Copy each entry in listing order (EntryCopyFailed per policy)
//
// On success the returned report has Count equal to the number of listed
// entries. With PolicyCollect a non-nil report is returned even when err
// is non-nil.
func (d *Deployer) Deploy(storageRoot string) (*model.DeploymentReport, error) {
	unlock := lockTarget(destination.Path(storageRoot, d.opts.dirName))
	defer unlock()

	report := &model.DeploymentReport{
		SourceFolder: d.opts.sourceFolder,
		StartedAt:    time.Now(),
	}

	// Step 1: the destination must exist before any write.
	target, err := destination.Resolve(d.fsys, storageRoot, d.opts.dirName)
	if err != nil {
		return nil, err
	}
	report.Target = target
	d.logger.Debug("Resolved destination", "path", target.Path, "created", target.Created)

	// Step 2: an empty or missing source folder is a packaging defect.
	entries, walkErrs, err := d.entries()
	if err != nil {
		return nil, err
	}
	d.logger.Info("Deploying assets", "count", len(entries), "from", d.opts.sourceFolder, "to", target.Path)

	var failures []error
	fail := func(name string, cause error) error {
		entryErr := model.EntryCopyFailed(name, cause)
		if d.opts.policy == model.PolicyAbort {
			return entryErr
		}
		d.logger.Warn("Asset copy failed", "entry", name, "err", cause)
		report.Fail(name, cause)
		failures = append(failures, entryErr)
		return nil
	}

	// Step 3: one copy operation per entry, in listing order. Directories
	// the walk could not expand fail at the position they were listed.
	buf := make([]byte, d.opts.bufferSize)
	for i := 0; i <= len(entries); i++ {
		for len(walkErrs) > 0 && walkErrs[0].Index == i {
			if err := fail(walkErrs[0].Name, walkErrs[0].Err); err != nil {
				return nil, err
			}
			walkErrs = walkErrs[1:]
		}
		if i == len(entries) {
			break
		}

		entry := entries[i]
		d.logger.Debug("Asset", "path", entry.Path)

		n, err := d.copyEntry(target.Path, entry, buf)
		if err != nil {
			if err := fail(entry.Name, err); err != nil {
				return nil, err
			}
			continue
		}
		report.Record(entry.Name, n)
	}
	report.FinishedAt = time.Now()

	if len(failures) > 0 {
		return report, &model.DeploymentError{
			Kind: model.KindEntryCopyFailed,
			Path: target.Path,
			Err:  errors.Join(failures...),
		}
	}

	d.logger.Info("Deployed assets", "count", report.Count, "bytes", report.Bytes, "took", report.Duration())
	return report, nil
}

// Entries lists what Deploy would copy, without touching the destination.
// A subdirectory that cannot be expanded is reported as EntryCopyFailed.
func (d *Deployer) Entries() ([]model.AssetEntry, error) {
	entries, walkErrs, err := d.entries()
	if err != nil {
		return nil, err
	}
	if len(walkErrs) > 0 {
		errs := make([]error, 0, len(walkErrs))
		for _, we := range walkErrs {
			errs = append(errs, model.EntryCopyFailed(we.Name, we.Err))
		}
		return entries, errors.Join(errs...)
	}
	return entries, nil
}

// entries lists the source folder, flat or recursive. Failures to list the
// folder itself map onto SourceFolderMissing; subdirectories the recursive
// walk could not expand are returned separately, in walk order.
func (d *Deployer) entries() ([]model.AssetEntry, []*source.EntryError, error) {
	folder := d.opts.sourceFolder

	var (
		entries  []model.AssetEntry
		walkErrs []*source.EntryError
		err      error
	)
	if d.opts.recursive {
		entries, walkErrs, err = source.Walk(d.src, folder)
	} else {
		entries, err = source.Flat(d.src, folder)
	}
	if err != nil {
		return nil, nil, model.SourceFolderMissing(folder, err)
	}
	if len(entries) == 0 && len(walkErrs) == 0 {
		return nil, nil, model.SourceFolderMissing(folder, nil)
	}
	return entries, walkErrs, nil
}

// copyEntry validates the entry name, prepares parent directories in
// recursive mode and runs a single copy operation.
func (d *Deployer) copyEntry(targetDir string, entry model.AssetEntry, buf []byte) (int64, error) {
	dest, err := d.destinationFor(targetDir, entry.Name)
	if err != nil {
		return 0, err
	}

	if d.opts.recursive {
		if dir := filepath.Dir(dest); dir != targetDir {
			if err := d.fsys.MkdirAll(dir, 0o755); err != nil {
				return 0, fmt.Errorf("create directory %s: %w", dir, err)
			}
		}
	}

	op := &copyOperation{
		open: func() (io.ReadCloser, error) { return d.src.Open(entry.Path) },
		fsys: d.fsys,
		dest: dest,
		buf:  buf,
	}
	return op.run()
}

// destinationFor maps an entry name onto a path under targetDir.
//
// Flat mode: the name must be a single base name. Separators are never
// decomposed into directories, so "a/b" is rejected rather than written.
// Recursive mode: the name is a slash path whose every segment must be a
// valid base name.
func (d *Deployer) destinationFor(targetDir, name string) (string, error) {
	segments := []string{name}
	if d.opts.recursive {
		segments = strings.Split(name, "/")
	}
	for _, seg := range segments {
		if err := validateSegment(seg); err != nil {
			return "", err
		}
	}
	return filepath.Join(append([]string{targetDir}, segments...)...), nil
}

// validateSegment rejects names that are empty, dot entries or contain a
// path separator of the host ("/" or filepath.Separator). A backslash is an
// ordinary character on POSIX hosts.
func validateSegment(seg string) error {
	switch {
	case seg == "", seg == ".", seg == "..":
		return fmt.Errorf("%w: %q", model.ErrInvalidEntryName, seg)
	case strings.ContainsRune(seg, '/'), strings.ContainsRune(seg, filepath.Separator):
		return fmt.Errorf("%w: %q contains a path separator", model.ErrInvalidEntryName, seg)
	}
	return nil
}
