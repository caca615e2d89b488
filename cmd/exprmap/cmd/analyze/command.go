// Package analyze implements the analyze command.
package analyze

import (
	"github.com/spf13/cobra"

	"github.com/exprmap/exprmap/cmd/application"
	"github.com/exprmap/exprmap/internal/cmd/output"
)

// NewCommand creates the analyze command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "analyze GENE...",
		GroupID: "core",
		Short:   "Compare the expression of genes from any species",
		Long: `Analyze resolves the given gene ids in every species, then counts for each
multi-species condition the genes called EXPRESSED, NOT_EXPRESSED or without
data. Conditions are built at the least common ancestor of the species of
the genes, using trusted similarity groups only.`,
		Example: `  exprmap analyze ENSG00000170558 ENSMUSG00000024304 ENSDARG00000018693`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}

			analysis, err := client.LoadMultiSpeciesExprAnalysis(cmd.Context(), args)
			if err != nil {
				return err
			}
			if missing := analysis.NotFoundGeneIDs(); len(missing) > 0 {
				app.Logger().Warn().Strs("gene_ids", missing).Msg("Genes not found")
			}

			w := cmd.OutOrStdout()
			return output.FormatAnalysis(w, output.DetectFormat(string(format), w), analysis)
		},
	}
}
