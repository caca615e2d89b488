// Package sources defines the collaborators the engine consumes: the
// taxonomy, the similarity groups, genes and species, the expression
// observations and the orthology resolution.
//
// Implementations own persistence and transport. They must honour ctx
// cancellation and return typed errors from pkg/errors for unknown ids.
//
// Example usage:
//
//	set := sources.NewSet(
//	    sources.WithTaxonomy(store),
//	    sources.WithCalls(store),
//	)
//	if err := set.Validate(sources.TaxonomyID, sources.CallsID); err != nil {
//	    log.Fatal(err)
//	}
package sources

import (
	"context"
	"iter"

	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/taxonomy"
)

// TaxonomyProvider supplies the species tree.
type TaxonomyProvider interface {
	Taxonomy(ctx context.Context) (*taxonomy.Taxonomy, error)
}

// SimilarityProvider supplies similarity groups scoped to a requested taxon.
// Groups must already be aggregated from curated annotations.
type SimilarityProvider interface {
	// AnatEntitySimilarities returns the anat groups requested for taxonID.
	AnatEntitySimilarities(ctx context.Context, taxonID int) ([]*similarity.AnatEntitySimilarity, error)
	// DevStageSimilarities returns the stage groups shared by the species.
	DevStageSimilarities(ctx context.Context, taxonID int, speciesIDs []int) ([]*similarity.DevStageSimilarity, error)
}

// GeneProvider supplies species and genes.
type GeneProvider interface {
	// Species returns the species with the given ids, or every species when
	// ids is empty. Unknown ids are a NotFoundError.
	Species(ctx context.Context, ids []int) ([]similarity.Species, error)
	// Genes returns the genes matching any of the filters.
	Genes(ctx context.Context, filters []similarity.GeneFilter) ([]similarity.Gene, error)
	// GenesByID returns every gene having one of the ids, in any species.
	// Unknown ids are omitted.
	GenesByID(ctx context.Context, ids []string) ([]similarity.Gene, error)
}

// CallProvider supplies quality-filtered, propagation-resolved observations.
type CallProvider interface {
	// ExpressionCalls streams the calls of genes matching the gene filters in
	// conditions passing conditionFilter. Iteration stops at the first error.
	ExpressionCalls(ctx context.Context, geneFilters []similarity.GeneFilter,
		conditionFilter *similarity.ConditionFilter) iter.Seq2[similarity.ExpressionCall, error]
	// Sorted reports whether ExpressionCalls yields the calls of a gene contiguously.
	Sorted() bool
}

// OrthologyProvider resolves genes to orthologous groups at a taxon level.
type OrthologyProvider interface {
	// OrthologGroups returns the ids of the groups each gene belongs to at
	// taxonID. Genes without a group may be absent from the result.
	OrthologGroups(ctx context.Context, taxonID int, genes []similarity.Gene) (map[similarity.GeneKey][]string, error)
}

// Provider implements every collaborator.
type Provider interface {
	TaxonomyProvider
	SimilarityProvider
	GeneProvider
	CallProvider
	OrthologyProvider
}
