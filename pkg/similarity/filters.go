package similarity

import (
	"slices"

	"github.com/exprmap/exprmap/pkg/errors"
)

// ConditionFilter restricts calls to anatomical entities and stages.
// An empty list puts no restriction on its axis.
type ConditionFilter struct {
	AnatEntityIDs []string `json:"anat_entity_ids,omitempty" yaml:"anat_entity_ids,omitempty"`
	DevStageIDs   []string `json:"dev_stage_ids,omitempty" yaml:"dev_stage_ids,omitempty"`
}

// IsEmpty reports whether the filter restricts nothing. A nil filter is empty.
func (f *ConditionFilter) IsEmpty() bool {
	return f == nil || (len(f.AnatEntityIDs) == 0 && len(f.DevStageIDs) == 0)
}

// Matches reports whether a single-species condition passes the filter.
func (f *ConditionFilter) Matches(cond Condition) bool {
	if f.IsEmpty() {
		return true
	}
	if len(f.AnatEntityIDs) > 0 && !slices.Contains(f.AnatEntityIDs, cond.AnatEntityID) {
		return false
	}
	return len(f.DevStageIDs) == 0 || slices.Contains(f.DevStageIDs, cond.DevStageID)
}

// GeneFilter selects genes of one species. No gene ids selects every gene
// of the species.
type GeneFilter struct {
	SpeciesID int      `json:"species_id" yaml:"species_id"`
	GeneIDs   []string `json:"gene_ids,omitempty" yaml:"gene_ids,omitempty"`
}

// Validate checks the filter.
func (f GeneFilter) Validate() error {
	if f.SpeciesID <= 0 {
		return errors.NewValidationError("speciesID", f.SpeciesID, "species id must be positive")
	}
	for _, id := range f.GeneIDs {
		if id == "" {
			return errors.NewValidationError("geneIDs", f.SpeciesID, "gene id cannot be empty")
		}
	}
	return nil
}

// Matches reports whether a gene passes the filter.
func (f GeneFilter) Matches(g Gene) bool {
	if g.SpeciesID != f.SpeciesID {
		return false
	}
	return len(f.GeneIDs) == 0 || slices.Contains(f.GeneIDs, g.ID)
}

// MatchesAny reports whether a gene passes at least one filter. No filters
// match every gene.
func MatchesAny(filters []GeneFilter, g Gene) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if f.Matches(g) {
			return true
		}
	}
	return false
}
