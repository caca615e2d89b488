// Package conserved implements the conserved command.
package conserved

import (
	"cmp"
	"slices"

	"github.com/spf13/cobra"

	"github.com/exprmap/exprmap/cmd/application"
	"github.com/exprmap/exprmap/internal/cmd/globals"
	"github.com/exprmap/exprmap/internal/cmd/output"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// NewCommand creates the conserved command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		flags    *globals.QueryFlags
		minScore float64
		sorted   bool
	)
	cmd := &cobra.Command{
		Use:     "conserved",
		GroupID: "core",
		Short:   "Score expression conservation across orthologous genes",
		Long: `Conserved groups the reconciled calls by orthologous gene group and
multi-species condition and scores each group: the number of species
agreeing on the dominant call type, plus the closeness of their ranks.`,
		Example: `  exprmap conserved --taxon 7742 --trusted
  exprmap conserved --taxon 40674 --anat UBERON:0000955 --min-score 2 --sort`,
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

			calls, err := client.LoadMultiSpeciesCalls(cmd.Context(), flags.Taxon, geneFilters,
				flags.ConditionFilter(), flags.Trusted)
			if err != nil {
				return err
			}

			kept := calls[:0:0]
			for _, c := range calls {
				if score(c) >= minScore {
					kept = append(kept, c)
				}
			}
			if sorted {
				slices.SortStableFunc(kept, func(a, b *similarity.MultiSpeciesCall) int {
					return cmp.Compare(score(b), score(a))
				})
			}

			w := cmd.OutOrStdout()
			return output.FormatMultiSpeciesCalls(w, output.DetectFormat(string(format), w), kept)
		},
	}
	flags = globals.AddQueryFlags(cmd)
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Only show groups scoring at least this value")
	cmd.Flags().BoolVar(&sorted, "sort", false, "Sort groups by decreasing score")
	return cmd
}

func score(c *similarity.MultiSpeciesCall) float64 {
	s, _ := c.ConservationScore()
	return s
}
