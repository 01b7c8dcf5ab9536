// deploy.go implements the "assetdeploy deploy" command.
//
// Orchestration steps:
//  1. Load the layered configuration
//  2. Open the packaged container (embedded pack or --bundle)
//  3. Take the storage-root lock so concurrent processes are serialized
//  4. Resolve <storage-root>/<dir-name> and copy every entry
//  5. Output the deployment report (text, JSON or YAML)

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/assetdeploy/internal/config"
	"github.com/shinji-kodama/assetdeploy/internal/deploy"
	"github.com/shinji-kodama/assetdeploy/internal/model"
	"github.com/shinji-kodama/assetdeploy/internal/output"
	"github.com/shinji-kodama/assetdeploy/internal/pack"
	"github.com/shinji-kodama/assetdeploy/internal/source"
)

// lockFileName is created in the storage root, next to (not inside) the
// asset directory.
const lockFileName = ".assetdeploy.lock"

// lockRetryDelay is how often a waiting deploy retries the lock.
const lockRetryDelay = 100 * time.Millisecond

// deployFlags holds the flag values for the deploy command that are not
// config-backed.
type deployFlags struct {
	noWait bool // --no-wait: fail instead of waiting for another deploy
}

// NewDeployCommand creates the "deploy" cobra command.
func NewDeployCommand() *cobra.Command {
	flags := &deployFlags{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Copy the resource pack into <storage-root>/assets",
		Long: `Copy every entry of the packaged resource pack into the asset directory.

The asset directory is created if it does not exist. Existing files are
truncated and overwritten; files that are no longer in the pack are left
alone. Each run re-copies everything.

Concurrent deploys to the same storage root are serialized through the
lock file <storage-root>/` + lockFileName + `, which is left in place
after the run. Use --no-wait to fail instead of waiting for it.

With --policy abort (default) the first entry that fails stops the run.
With --policy collect every entry is attempted and all failures are
reported together.

Examples:
  assetdeploy deploy
  assetdeploy deploy --storage-root /var/lib/engine
  assetdeploy deploy --bundle pack.tar.zst --recursive
  assetdeploy deploy --policy collect -o json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			report, err := runDeploy(cmd.Context(), cfg, !flags.noWait)
			if report != nil {
				if printErr := printDeployResult(cmd, report); printErr != nil && err == nil {
					err = printErr
				}
			}
			return err
		},
	}

	cmd.Flags().String("policy", string(model.PolicyAbort), "Failure policy: abort or collect")
	cmd.Flags().Int("buffer-size", deploy.DefaultBufferSize, "Copy buffer size in bytes")
	cmd.Flags().BoolVar(&flags.noWait, "no-wait", false, "Fail immediately if another deploy holds the lock")

	return cmd
}

// runDeploy performs one deployment under the storage-root lock. The
// returned report is non-nil on success and, with the collect policy,
// also when some entries failed.
func runDeploy(ctx context.Context, cfg *config.Config, wait bool) (*model.DeploymentReport, error) {
	// Step 1: Open the packaged container.
	src, err := openSource(cfg)
	if err != nil {
		return nil, err
	}

	// Step 2: Serialize with other processes deploying to the same root.
	unlock, err := acquireLock(ctx, cfg.StorageRoot, wait)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Step 3: Deploy.
	d := newDeployer(cfg, src)
	VerboseLog("Deploying %q with policy %s (buffer %d bytes, recursive=%t)",
		cfg.SourceFolder, cfg.Policy, cfg.BufferSize, cfg.Recursive)

	return d.Deploy(cfg.StorageRoot)
}

// openSource returns the packaged container selected by the configuration.
func openSource(cfg *config.Config) (*source.FS, error) {
	if cfg.Bundle == "" {
		VerboseLog("Using embedded pack")
		return pack.Source(), nil
	}

	VerboseLog("Using bundle %s", cfg.Bundle)
	src, err := source.OpenBundleFile(cfg.Bundle)
	if err != nil {
		return nil, model.SourceFolderMissing(cfg.SourceFolder, err)
	}
	return src, nil
}

// newDeployer builds a Deployer writing to the host filesystem.
func newDeployer(cfg *config.Config, src source.Source) *deploy.Deployer {
	return deploy.New(src, afero.NewOsFs(),
		deploy.WithSourceFolder(cfg.SourceFolder),
		deploy.WithDirName(cfg.DirName),
		deploy.WithBufferSize(cfg.BufferSize),
		deploy.WithPolicy(cfg.Policy),
		deploy.WithRecursive(cfg.Recursive),
		deploy.WithLogger(logger),
	)
}

// acquireLock takes an exclusive file lock in the storage root. The
// deployer already serializes goroutines within this process; the file
// lock extends that to separate processes sharing a storage root.
//
// The storage root is created if needed. Failing to create it or the lock
// file means the root is unusable, so those errors are DirectoryUnavailable.
func acquireLock(ctx context.Context, storageRoot string, wait bool) (func(), error) {
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		return nil, model.DirectoryUnavailable(storageRoot, err)
	}

	lockPath := filepath.Join(storageRoot, lockFileName)
	fl := flock.New(lockPath)

	var locked bool
	var err error
	if wait {
		VerboseLog("Waiting for lock %s", lockPath)
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryLock()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, model.WrapCLIError(model.ExitLockBusy, "gave up waiting for deploy lock", err)
		}
		return nil, model.DirectoryUnavailable(storageRoot, err)
	}
	if !locked {
		return nil, model.NewCLIError(
			model.ExitLockBusy,
			fmt.Sprintf("another deploy holds %s", lockPath),
		)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			logger.Warn("failed to release deploy lock", "path", lockPath, "error", err)
		}
	}, nil
}

// deployTable renders a report's entries as a text table.
type deployTable struct {
	report *model.DeploymentReport
}

func (t deployTable) Header() []string { return []string{"Entry", "Bytes", "Status"} }

func (t deployTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.report.Entries)+len(t.report.Failures))
	for _, e := range t.report.Entries {
		rows = append(rows, []string{e.Name, strconv.FormatInt(e.Bytes, 10), "ok"})
	}
	for _, f := range t.report.Failures {
		rows = append(rows, []string{f.Name, "-", "failed: " + f.Error})
	}
	return rows
}

// printDeployResult outputs the deployment report. Text mode prints the
// entry table in verbose mode and always ends with a one-line summary.
func printDeployResult(cmd *cobra.Command, report *model.DeploymentReport) error {
	if format != output.FormatText {
		return printResult(cmd, report)
	}

	w := cmd.OutOrStdout()
	if verbose || len(report.Failures) > 0 {
		if err := printResult(cmd, deployTable{report: report}); err != nil {
			return err
		}
	}

	created := ""
	if report.Target.Created {
		created = " (created)"
	}
	_, err := fmt.Fprintf(w, "Deployed %d entries (%d bytes) to %s%s in %s\n",
		report.Count, report.Bytes, report.Target.Path, created,
		report.Duration().Round(time.Millisecond))
	return err
}
