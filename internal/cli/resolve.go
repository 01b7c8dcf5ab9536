// resolve.go implements the "assetdeploy resolve" command.

package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/assetdeploy/internal/destination"
	"github.com/shinji-kodama/assetdeploy/internal/output"
)

// NewResolveCommand creates the "resolve" cobra command.
func NewResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Create and print the asset directory path",
		Long: `Resolve <storage-root>/<dir-name>, creating it if it does not exist, and
print its path. Fails with exit code 2 if the directory cannot be created
or is not writable.

Examples:
  assetdeploy resolve
  assetdeploy resolve --storage-root /var/lib/engine -o json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			target, err := destination.Resolve(afero.NewOsFs(), cfg.StorageRoot, cfg.DirName)
			if err != nil {
				return err
			}
			VerboseLog("Resolved %s (created=%t)", target.Path, target.Created)

			if format == output.FormatText {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), target.Path)
				return err
			}
			return printResult(cmd, target)
		},
	}
}
