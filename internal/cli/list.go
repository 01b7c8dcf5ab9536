// list.go implements the "assetdeploy list" command, which shows the
// entries a deploy would copy without touching the storage root.

package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the entries of the packaged resource pack",
		Long: `List the entries a deploy would copy, in listing order.

Nothing is written. Without --recursive only the top level of the source
folder is listed, exactly as deploy would see it.

Examples:
  assetdeploy list
  assetdeploy list --bundle pack.tar.zst --recursive -o json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
}

func runList(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	src, err := openSource(cfg)
	if err != nil {
		return err
	}

	entries, err := newDeployer(cfg, src).Entries()
	if err != nil {
		return err
	}
	VerboseLog("Found %d entries in %q", len(entries), cfg.SourceFolder)

	return printResult(cmd, entryTable(entries))
}

// entryTable renders asset entries as a text table and marshals as a plain
// list in JSON and YAML.
type entryTable []model.AssetEntry

func (t entryTable) Header() []string { return []string{"Name", "Path"} }

func (t entryTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		rows = append(rows, []string{e.Name, e.Path})
	}
	return rows
}
