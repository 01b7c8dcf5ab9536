// cat.go implements the "assetdeploy cat" command, which reads a single
// resource the way the consuming engine does: deployed file first, then
// the packaged pack.

package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/assetdeploy/internal/output"
	"github.com/shinji-kodama/assetdeploy/internal/resource"
)

// catResult is the structured form of a cat result.
type catResult struct {
	Name    string          `json:"name" yaml:"name"`
	Origin  resource.Origin `json:"origin" yaml:"origin"`
	Size    int             `json:"size" yaml:"size"`
	Content string          `json:"content" yaml:"content"`
}

// NewCatCommand creates the "cat" cobra command.
func NewCatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <name>",
		Short: "Print a resource, preferring the deployed copy",
		Long: `Print a resource by name relative to the asset directory.

The deployed file under <storage-root>/<dir-name> wins. If it is missing,
the entry is read from the packaged resource pack instead. Names may not
escape the asset directory.

Examples:
  assetdeploy cat pack.json
  assetdeploy cat textures/logo.png > logo.png
  assetdeploy cat en_us.lang -o json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			src, err := openSource(cfg)
			if err != nil {
				return err
			}

			loader := resource.NewLoader(afero.NewOsFs(), cfg.TargetDir(), src, cfg.SourceFolder)
			data, origin, err := loader.Load(args[0])
			if err != nil {
				return err
			}
			VerboseLog("Loaded %s from %s (%d bytes)", args[0], origin, len(data))

			if format == output.FormatText {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return printResult(cmd, catResult{
				Name:    args[0],
				Origin:  origin,
				Size:    len(data),
				Content: string(data),
			})
		},
	}
}
