// Package globals provides shared flag structures and utilities for CLI commands.
package globals

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// QueryFlags holds the flags selecting genes and conditions.
type QueryFlags struct {
	Taxon   int
	Species []int
	Genes   []string
	Anat    []string
	Stages  []string
	Trusted bool
}

// AddQueryFlags adds the query flags to a command. The taxon is required.
func AddQueryFlags(cmd *cobra.Command) *QueryFlags {
	flags := &QueryFlags{}

	cmd.Flags().IntVarP(&flags.Taxon, "taxon", "t", 0,
		"Taxon the similarity groups are requested for")
	cmd.Flags().IntSliceVarP(&flags.Species, "species", "s", nil,
		"Species to include (default: every species under the taxon)")
	cmd.Flags().StringSliceVarP(&flags.Genes, "gene", "g", nil,
		"Gene ids to include, requires exactly one --species")
	cmd.Flags().StringSliceVar(&flags.Anat, "anat", nil,
		"Anatomical entity ids to start from")
	cmd.Flags().StringSliceVar(&flags.Stages, "stage", nil,
		"Developmental stage ids to start from")
	cmd.Flags().BoolVar(&flags.Trusted, "trusted", false,
		"Only use trusted anatomical similarity groups")
	_ = cmd.MarkFlagRequired("taxon")

	return flags
}

// GeneFilters returns one filter per species. Gene ids are attached to the
// single species they are given with.
func (f *QueryFlags) GeneFilters() ([]similarity.GeneFilter, error) {
	if len(f.Genes) > 0 && len(f.Species) != 1 {
		return nil, errors.NewValidationError("gene", f.Genes,
			fmt.Sprintf("--gene requires exactly one --species, got %d", len(f.Species)))
	}
	var filters []similarity.GeneFilter
	for _, id := range f.Species {
		if slices.ContainsFunc(filters, func(g similarity.GeneFilter) bool { return g.SpeciesID == id }) {
			continue
		}
		filters = append(filters, similarity.GeneFilter{SpeciesID: id, GeneIDs: slices.Clone(f.Genes)})
	}
	return filters, nil
}

// ConditionFilter returns the filter of the anat and stage flags, or nil
// when neither is set.
func (f *QueryFlags) ConditionFilter() *similarity.ConditionFilter {
	if len(f.Anat) == 0 && len(f.Stages) == 0 {
		return nil
	}
	return &similarity.ConditionFilter{
		AnatEntityIDs: slices.Clone(f.Anat),
		DevStageIDs:   slices.Clone(f.Stages),
	}
}
