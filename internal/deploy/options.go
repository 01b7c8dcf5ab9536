package deploy

import (
	"github.com/charmbracelet/log"

	"github.com/shinji-kodama/assetdeploy/internal/destination"
	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// Option configures a Deployer.
type Option func(*options)

type options struct {
	sourceFolder string
	dirName      string
	bufferSize   int
	policy       model.FailurePolicy
	recursive    bool
	logger       *log.Logger
}

func defaultOptions() options {
	return options{
		sourceFolder: DefaultSourceFolder,
		dirName:      destination.DefaultDirName,
		bufferSize:   DefaultBufferSize,
		policy:       model.PolicyAbort,
	}
}

// WithSourceFolder sets the folder listed inside the packaged container.
func WithSourceFolder(folder string) Option {
	return func(o *options) {
		if folder != "" {
			o.sourceFolder = folder
		}
	}
}

// WithDirName sets the directory created under the storage root.
func WithDirName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.dirName = name
		}
	}
}

// WithBufferSize sets the copy buffer size. Non-positive values keep the
// default.
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithPolicy sets the per-entry failure policy. Invalid values keep the
// default (abort).
func WithPolicy(p model.FailurePolicy) Option {
	return func(o *options) {
		if p.IsValid() {
			o.policy = p
		}
	}
}

// WithRecursive enables subdirectory support: the source folder is walked
// as a tree and relative paths are recreated under the destination.
func WithRecursive(recursive bool) Option {
	return func(o *options) {
		o.recursive = recursive
	}
}

// WithLogger sets the logger. Without it the Deployer is silent.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
