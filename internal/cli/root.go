// Package cli implements the cobra-based CLI commands for assetdeploy.
//
// Each subcommand (deploy, list, resolve, cat, push) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/assetdeploy/internal/config"
	"github.com/shinji-kodama/assetdeploy/internal/model"
	"github.com/shinji-kodama/assetdeploy/internal/output"
)

// Global flag variables shared across all subcommands. They are bound to
// persistent flags on the root command. Flags that map onto config keys
// (--storage-root, --dir-name, ...) are read through config.Load instead.
var (
	// configFile is an explicit --config path.
	configFile string

	// outputFormat is the raw --output value ("text", "json", "yaml").
	outputFormat string

	// verbose enables debug logging on stderr.
	verbose bool
)

// format is outputFormat after validation in PersistentPreRunE.
var format = output.FormatText

// logger is the process logger. It writes to stderr so stdout stays clean
// for command results.
var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: config.AppName})

// Version, Commit, and Date are set at build time via ldflags from the
// main package.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action. It provides help
// text and global flags; functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "assetdeploy",
		Short: "Deploy a packaged resource pack into a writable asset directory",
		Long: `assetdeploy copies the resource pack shipped with an application into a
writable per-installation directory (<storage-root>/assets) so the engine
can read it from the filesystem.

Every deploy re-copies every entry and overwrites existing files. The pack
embedded in the binary is used unless --bundle points at a .tar.zst pack.

Settings come from, lowest to highest precedence: built-in defaults,
./assetdeploy.jsonc (or --config), ASSETDEPLOY_* environment variables,
and command-line flags.`,

		// Errors and usage are printed by Execute in the selected format.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(outputFormat)
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "invalid --output", err)
			}
			format = f

			logger.SetOutput(cmd.ErrOrStderr())
			if verbose {
				logger.SetLevel(log.DebugLevel)
			} else {
				logger.SetLevel(log.InfoLevel)
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default: ./"+config.DefaultConfigFile+" if present)")
	pf.StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Config-backed flags. Their defaults only document the built-in
	// values; config.Load decides the effective value.
	pf.String("storage-root", "", "Per-installation storage root (default: platform data dir)")
	pf.String("dir-name", "assets", "Directory created under the storage root")
	pf.String("bundle", "", "Packaged .tar.zst container to deploy instead of the embedded pack")
	pf.String("source-folder", "resourcepack", "Folder listed inside the packaged container")
	pf.Bool("recursive", false, "Descend into subdirectories of the source folder")

	rootCmd.AddCommand(NewDeployCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewCatCommand())
	rootCmd.AddCommand(NewPushCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into exit codes.
// This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(int(reportError(os.Stderr, err)))
	}
}

// reportError prints err to w and returns the exit code for it.
func reportError(w io.Writer, err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) && cliErr == err {
		printError(w, cliErr.Message, cliErr.Err)
	} else {
		printError(w, err.Error(), nil)
	}
	return model.ExitCodeFor(err)
}

// printError outputs an error message in the selected format. Errors go to
// stderr even in JSON mode; stdout is reserved for command results.
func printError(w io.Writer, message string, underlying error) {
	if format == output.FormatText {
		if underlying != nil {
			fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(w, "Error: %s\n", message)
		}
		return
	}

	errObj := map[string]any{"message": message}
	if underlying != nil {
		errObj["detail"] = underlying.Error()
	}
	envelope := map[string]any{"error": errObj}
	if format == output.FormatYAML {
		_ = output.NewFormatter(output.FormatYAML).Write(w, envelope)
		return
	}
	data, _ := json.MarshalIndent(envelope, "", "  ")
	fmt.Fprintln(w, string(data))
}

// VerboseLog logs a debug message. It is shown only with --verbose.
func VerboseLog(msg string, args ...any) {
	logger.Debugf(msg, args...)
}

// printResult writes a command result to the command's stdout in the
// selected format.
func printResult(cmd *cobra.Command, data any) error {
	return output.NewFormatter(format).Write(cmd.OutOrStdout(), data)
}

// loadConfig resolves the layered configuration for cmd. All flags the
// command sees, inherited persistent ones included, are bound.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: configFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid configuration", err)
	}
	VerboseLog("Storage root: %s", cfg.StorageRoot)
	VerboseLog("Target directory: %s", cfg.TargetDir())
	return cfg, nil
}
