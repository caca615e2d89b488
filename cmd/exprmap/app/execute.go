package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/exprmap/exprmap/pkg/constants"
)

// Execute runs the exprmap CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	ctx, cancel := commandContext(ctx, constants.CommandTimeout)
	defer cancel()

	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	if a.out != nil {
		rootCmd.SetOut(a.out)
	}
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "exprmap",
		Short:   "Multi-species gene expression comparison",
		Version: a.version,
		Long: `exprmap compares gene expression across species. It merges the
expression calls of each species over groups of homologous anatomical
entities and equivalent developmental stages, summarizes them for a set of
genes and scores how well expression is conserved between orthologs.

Every command reads a YAML dataset given with --dataset or EXPRMAP_DATASET.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspect",
		Title: "Inspection Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "utility",
		Title: "Utility Commands:",
	})

	// Flags default to the loaded configuration, so they only override it when set
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", a.config.ConfigFile, "config file (default is $HOME/.exprmap.yaml)")
	flags.StringVarP(&a.config.Dataset, "dataset", "d", a.config.Dataset, "dataset file (env "+constants.DatasetEnvKey+")")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, wide, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("exprmap {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	// Reinitialize logger with the flags applied
	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
