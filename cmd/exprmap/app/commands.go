package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/exprmap/exprmap/cmd/exprmap/cmd/analyze"
	"github.com/exprmap/exprmap/cmd/exprmap/cmd/calls"
	"github.com/exprmap/exprmap/cmd/exprmap/cmd/conserved"
	"github.com/exprmap/exprmap/cmd/exprmap/cmd/docs"
	"github.com/exprmap/exprmap/cmd/exprmap/cmd/expand"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(calls.NewCommand(a))
	rootCmd.AddCommand(analyze.NewCommand(a))
	rootCmd.AddCommand(conserved.NewCommand(a))

	// Inspection commands
	rootCmd.AddCommand(expand.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(docs.NewCommand())
	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: "utility",
		Short:   "Show version information",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "exprmap %s\n", a.version)
			if a.config.Verbose {
				fmt.Fprintf(w, "  commit:     %s\n", a.commit)
				fmt.Fprintf(w, "  built:      %s\n", a.date)
				fmt.Fprintf(w, "  built by:   %s\n", a.builtBy)
				fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
				fmt.Fprintf(w, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
