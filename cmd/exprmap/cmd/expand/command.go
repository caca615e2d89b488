// Package expand implements the expand command.
package expand

import (
	"github.com/spf13/cobra"

	"github.com/exprmap/exprmap/cmd/application"
	"github.com/exprmap/exprmap/internal/cmd/output"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// NewCommand creates the expand command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		taxon   int
		anat    []string
		stages  []string
		trusted bool
	)
	cmd := &cobra.Command{
		Use:     "expand",
		GroupID: "inspect",
		Short:   "Show how a condition filter is widened to similarity groups",
		Example: `  exprmap expand --taxon 40674 --anat UBERON:0001890 --stage HsapDv:0000087`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.ParseFormat(app.OutputFormat())
			if err != nil {
				return err
			}
			client, err := app.Client()
			if err != nil {
				return err
			}

			expansion, err := client.ExpandConditionFilter(cmd.Context(), taxon,
				&similarity.ConditionFilter{AnatEntityIDs: anat, DevStageIDs: stages}, trusted)
			if err != nil {
				return err
			}
			if expansion.Empty() {
				app.Logger().Warn().Msg("No similarity group matches the filter")
			}

			w := cmd.OutOrStdout()
			return output.FormatExpansion(w, output.DetectFormat(string(format), w), expansion)
		},
	}
	cmd.Flags().IntVarP(&taxon, "taxon", "t", 0, "Taxon the similarity groups are requested for")
	cmd.Flags().StringSliceVar(&anat, "anat", nil, "Anatomical entity ids (default: every group)")
	cmd.Flags().StringSliceVar(&stages, "stage", nil, "Developmental stage ids (default: every group)")
	cmd.Flags().BoolVar(&trusted, "trusted", false, "Only use trusted anatomical similarity groups")
	_ = cmd.MarkFlagRequired("taxon")
	return cmd
}
