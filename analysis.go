package exprmap

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/exprmap/exprmap/pkg/constants"
	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/sources"
)

// LoadMultiSpeciesExprAnalysis implements Analysis.
func (c *client) LoadMultiSpeciesExprAnalysis(ctx context.Context, geneIDs []string) (analysis *similarity.MultiSpeciesExprAnalysis, err error) {
	ctx, done := c.request(ctx, "load_multi_species_analysis")
	defer func() { done(err) }()

	if err := c.sources.Validate(sources.TaxonomyID, sources.SimilarityID, sources.GenesID, sources.CallsID); err != nil {
		return nil, err
	}

	requested, err := requestedGeneIDs(geneIDs)
	if err != nil {
		return nil, err
	}
	genes, err := c.sources.Genes.GenesByID(ctx, requested)
	if err != nil {
		return nil, errors.WrapResource("fetch", "genes", "", err)
	}

	found := make(map[string]bool, len(genes))
	for _, g := range genes {
		found[g.ID] = true
	}
	var notFound []string
	for _, id := range requested {
		if !found[id] {
			notFound = append(notFound, id)
		}
	}
	if len(genes) == 0 {
		return nil, errors.NewNotFoundError("genes", strings.Join(requested, ", "))
	}

	// One filter per species, keeping the order species are first seen.
	var filters []similarity.GeneFilter
	bySpecies := make(map[int]int)
	for _, g := range genes {
		i, ok := bySpecies[g.SpeciesID]
		if !ok {
			i = len(filters)
			bySpecies[g.SpeciesID] = i
			filters = append(filters, similarity.GeneFilter{SpeciesID: g.SpeciesID})
		}
		if !slices.Contains(filters[i].GeneIDs, g.ID) {
			filters[i].GeneIDs = append(filters[i].GeneIDs, g.ID)
		}
	}

	taxonID, err := c.commonTaxon(ctx, filters)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithTaxon(ctx, taxonID)
	logging.FromContext(ctx).Debug().
		Int("genes", len(genes)).
		Int("not_found", len(notFound)).
		Int("species", len(filters)).
		Msg("Genes resolved")

	result, err := c.loadSimilarityCalls(ctx, taxonID, filters, nil, true)
	if err != nil {
		return nil, err
	}
	return c.analyzer.Analyze(ctx, requested, notFound, genes, result.Calls)
}

// commonTaxon returns the least common ancestor of the species of filters.
func (c *client) commonTaxon(ctx context.Context, filters []similarity.GeneFilter) (int, error) {
	tax, err := c.sources.Taxonomy.Taxonomy(ctx)
	if err != nil {
		return 0, errors.WrapResource("fetch", "taxonomy", "", err)
	}
	ids := make([]int, len(filters))
	for i, f := range filters {
		ids[i] = f.SpeciesID
	}
	species, err := c.sources.Genes.Species(ctx, ids)
	if err != nil {
		return 0, errors.WrapResource("fetch", "species", "", err)
	}

	taxa := make([]int, len(species))
	for i, sp := range species {
		taxa[i] = sp.ID
		if !tax.Has(sp.ID) {
			taxa[i] = sp.ParentTaxonID
		}
	}
	lca, err := tax.LeastCommonAncestor(taxa...)
	if err != nil {
		return 0, err
	}
	return lca.ID, nil
}

// requestedGeneIDs validates gene ids and removes duplicates, keeping the
// first occurrence of each.
func requestedGeneIDs(geneIDs []string) ([]string, error) {
	if len(geneIDs) == 0 {
		return nil, errors.NewValidationError("geneIDs", geneIDs, "at least one gene id is required")
	}
	var ids []string
	seen := make(map[string]bool, len(geneIDs))
	for _, id := range geneIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, errors.NewValidationError("geneIDs", geneIDs, "gene ids cannot be blank")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) > constants.MaxRequestedGenes {
		return nil, errors.NewValidationError("geneIDs", len(ids),
			fmt.Sprintf("at most %d genes can be compared, got %d", constants.MaxRequestedGenes, len(ids)))
	}
	return ids, nil
}
