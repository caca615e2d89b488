// Package calls implements the calls command.
package calls

import (
	"github.com/spf13/cobra"

	"github.com/exprmap/exprmap/cmd/application"
	"github.com/exprmap/exprmap/internal/cmd/globals"
	"github.com/exprmap/exprmap/internal/cmd/output"
)

// NewCommand creates the calls command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var flags *globals.QueryFlags
	cmd := &cobra.Command{
		Use:     "calls",
		GroupID: "core",
		Short:   "Reconcile expression calls over similarity groups",
		Long: `Calls loads the expression calls of the selected genes and merges them
into one call per gene and multi-species condition. Anatomical entities and
stages are widened to their whole similarity group for the requested taxon.

EXPRESSED wins over NOT_EXPRESSED when the calls of a group disagree.`,
		Example: `  exprmap calls --dataset vertebrates.yaml --taxon 40674
  exprmap calls --taxon 40674 --anat UBERON:0001890 --trusted
  exprmap calls --taxon 40674 --species 9606 --gene ENSG00000170558 -o wide`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			geneFilters, err := flags.GeneFilters()
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}

			result, err := client.LoadSimilarityExpressionCalls(cmd.Context(), flags.Taxon, geneFilters,
				flags.ConditionFilter(), flags.Trusted)
			if err != nil {
				return err
			}
			app.Logger().Info().
				Int("calls", len(result.Calls)).
				Int("skipped", result.Metadata.Stats.CallsSkipped).
				Int("conflicts", result.Metadata.Stats.ConflictsResolved).
				Msg("Similarity calls loaded")

			w := cmd.OutOrStdout()
			return output.FormatCalls(w, output.DetectFormat(string(format), w), result.Calls)
		},
	}
	flags = globals.AddQueryFlags(cmd)
	return cmd
}
