package exprmap

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/exprmap/exprmap/pkg/constants"
	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/expander"
	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/reconcile"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/sources"
	"github.com/exprmap/exprmap/pkg/taxonomy"
)

// scope is the validated request of a similarity call load.
type scope struct {
	taxon       taxonomy.Taxon
	geneFilters []similarity.GeneFilter
	speciesIDs  []int
}

// groups holds the similarity groups of a request.
type groups struct {
	anat  []*similarity.AnatEntitySimilarity
	stage []*similarity.DevStageSimilarity
}

// LoadSimilarityExpressionCalls implements Calls.
func (c *client) LoadSimilarityExpressionCalls(ctx context.Context, taxonID int, geneFilters []similarity.GeneFilter,
	conditionFilter *similarity.ConditionFilter, onlyTrusted bool) (result *reconcile.Result, err error) {
	ctx, done := c.request(ctx, "load_similarity_calls")
	defer func() { done(err) }()
	ctx = logging.WithTaxon(ctx, taxonID)

	if err := c.sources.Validate(sources.TaxonomyID, sources.SimilarityID, sources.GenesID, sources.CallsID); err != nil {
		return nil, err
	}
	return c.loadSimilarityCalls(ctx, taxonID, geneFilters, conditionFilter, onlyTrusted)
}

// LoadMultiSpeciesCalls implements Calls.
func (c *client) LoadMultiSpeciesCalls(ctx context.Context, taxonID int, geneFilters []similarity.GeneFilter,
	conditionFilter *similarity.ConditionFilter, onlyTrusted bool) (calls []*similarity.MultiSpeciesCall, err error) {
	ctx, done := c.request(ctx, "load_multi_species_calls")
	defer func() { done(err) }()
	ctx = logging.WithTaxon(ctx, taxonID)

	if err := c.sources.Validate(sources.IDs()...); err != nil {
		return nil, err
	}
	result, err := c.loadSimilarityCalls(ctx, taxonID, geneFilters, conditionFilter, onlyTrusted)
	if err != nil {
		return nil, err
	}

	var genes []similarity.Gene
	seen := make(map[similarity.GeneKey]bool)
	for _, call := range result.Calls {
		if key := call.Gene().Key(); !seen[key] {
			seen[key] = true
			genes = append(genes, call.Gene())
		}
	}
	grouping, err := c.grouper().GroupByOrthology(ctx, taxonID, genes)
	if err != nil {
		return nil, err
	}
	return c.analyzer.BuildMultiSpeciesCalls(ctx, grouping, result.Calls)
}

// ExpandConditionFilter implements Calls.
func (c *client) ExpandConditionFilter(ctx context.Context, taxonID int, conditionFilter *similarity.ConditionFilter,
	onlyTrusted bool) (expansion *expander.Expansion, err error) {
	ctx, done := c.request(ctx, "expand_condition_filter")
	defer func() { done(err) }()
	ctx = logging.WithTaxon(ctx, taxonID)

	if err := c.sources.Validate(sources.TaxonomyID, sources.SimilarityID, sources.GenesID); err != nil {
		return nil, err
	}
	s, err := c.resolveScope(ctx, taxonID, nil)
	if err != nil {
		return nil, err
	}
	g, err := c.fetchGroups(ctx, s, onlyTrusted)
	if err != nil {
		return nil, err
	}
	return expander.Expand(ctx, taxonID, conditionFilter, g.anat, g.stage)
}

// loadSimilarityCalls runs a similarity call load within an existing request.
func (c *client) loadSimilarityCalls(ctx context.Context, taxonID int, geneFilters []similarity.GeneFilter,
	conditionFilter *similarity.ConditionFilter, onlyTrusted bool) (*reconcile.Result, error) {
	logger := logging.FromContext(ctx)

	s, err := c.resolveScope(ctx, taxonID, geneFilters)
	if err != nil {
		return nil, err
	}
	if len(s.speciesIDs) == 0 {
		logger.Debug().Msg("No species under the requested taxon")
		return c.emptyResult(taxonID), nil
	}

	g, err := c.fetchGroups(ctx, s, onlyTrusted)
	if err != nil {
		return nil, err
	}
	expansion, err := expander.Expand(ctx, taxonID, conditionFilter, g.anat, g.stage)
	if err != nil {
		return nil, err
	}
	if expansion.Empty() {
		logger.Debug().Msg("No similarity group matches the condition filter")
		return c.emptyResult(taxonID), nil
	}

	seq := c.sources.Calls.ExpressionCalls(ctx, s.geneFilters, expansion.Filter)
	var result *reconcile.Result
	if c.sources.Calls.Sorted() {
		var calls []*similarity.SimilarityExpressionCall
		result, err = c.engine.ReconcileSorted(ctx, taxonID, seq, g.anat, g.stage,
			func(call *similarity.SimilarityExpressionCall) error {
				calls = append(calls, call)
				return nil
			})
		if result != nil {
			result.Calls = calls
		}
	} else {
		result, err = c.engine.ReconcileSeq(ctx, taxonID, seq, g.anat, g.stage)
	}
	if err != nil {
		return nil, err
	}

	for t, n := range result.CountByType() {
		c.metrics.AddCalls(t.String(), n)
	}
	c.metrics.AddSkipped(strconv.Itoa(taxonID), result.Metadata.Stats.CallsSkipped)
	c.hooks.triggerCallsReconciled(taxonID, result.Calls)

	logger.Info().
		Int("similarity_calls", len(result.Calls)).
		Int("skipped", result.Metadata.Stats.CallsSkipped).
		Msg(result.Summary())
	return result, nil
}

// resolveScope validates the taxon and the gene filters. Empty filters are
// replaced by one filter per species under the taxon.
func (c *client) resolveScope(ctx context.Context, taxonID int, geneFilters []similarity.GeneFilter) (*scope, error) {
	tax, err := c.sources.Taxonomy.Taxonomy(ctx)
	if err != nil {
		return nil, errors.WrapResource("fetch", "taxonomy", "", err)
	}
	taxon, err := tax.Taxon(taxonID)
	if err != nil {
		return nil, err
	}

	s := &scope{taxon: taxon}
	if len(geneFilters) == 0 {
		all, err := c.sources.Genes.Species(ctx, nil)
		if err != nil {
			return nil, errors.WrapResource("fetch", "species", "", err)
		}
		for _, sp := range all {
			if descendsFrom(tax, sp, taxonID) {
				s.speciesIDs = append(s.speciesIDs, sp.ID)
				s.geneFilters = append(s.geneFilters, similarity.GeneFilter{SpeciesID: sp.ID})
			}
		}
		return s, nil
	}

	var ids []int
	for _, f := range geneFilters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if !slices.Contains(ids, f.SpeciesID) {
			ids = append(ids, f.SpeciesID)
		}
	}
	species, err := c.sources.Genes.Species(ctx, ids)
	if err != nil {
		return nil, errors.WrapResource("fetch", "species", "", err)
	}
	for _, sp := range species {
		if !descendsFrom(tax, sp, taxonID) {
			return nil, errors.NewValidationError("geneFilters", sp.ID,
				fmt.Sprintf("species %d is not a member of taxon %d", sp.ID, taxonID))
		}
	}
	if err := c.checkGeneIDs(ctx, geneFilters); err != nil {
		return nil, err
	}
	slices.Sort(ids)
	s.speciesIDs = ids
	s.geneFilters = slices.Clone(geneFilters)
	return s, nil
}

// checkGeneIDs reports the gene ids of the filters that match no gene of
// their species.
func (c *client) checkGeneIDs(ctx context.Context, geneFilters []similarity.GeneFilter) error {
	var explicit []similarity.GeneFilter
	for _, f := range geneFilters {
		if len(f.GeneIDs) > 0 {
			explicit = append(explicit, f)
		}
	}
	if len(explicit) == 0 {
		return nil
	}
	genes, err := c.sources.Genes.Genes(ctx, explicit)
	if err != nil {
		return errors.WrapResource("fetch", "genes", "", err)
	}
	found := make(map[similarity.GeneKey]bool, len(genes))
	for _, g := range genes {
		found[g.Key()] = true
	}
	var missing []string
	for _, f := range explicit {
		for _, id := range f.GeneIDs {
			key := similarity.GeneKey{ID: id, SpeciesID: f.SpeciesID}
			if !found[key] && !slices.Contains(missing, key.String()) {
				missing = append(missing, key.String())
			}
		}
	}
	if len(missing) > 0 {
		return errors.NewNotFoundError("genes", strings.Join(missing, ", "))
	}
	return nil
}

// fetchGroups fetches the anat and stage groups of a request concurrently.
func (c *client) fetchGroups(ctx context.Context, s *scope, onlyTrusted bool) (*groups, error) {
	g := &groups{}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(constants.MaxSourcesInFlight)
	eg.Go(func() error {
		anat, err := c.sources.Similarities.AnatEntitySimilarities(egCtx, s.taxon.ID)
		if err != nil {
			return errors.WrapResource("fetch", "anat entity similarities", strconv.Itoa(s.taxon.ID), err)
		}
		g.anat = anat
		return nil
	})
	eg.Go(func() error {
		stage, err := c.sources.Similarities.DevStageSimilarities(egCtx, s.taxon.ID, s.speciesIDs)
		if err != nil {
			return errors.WrapResource("fetch", "dev stage similarities", strconv.Itoa(s.taxon.ID), err)
		}
		g.stage = stage
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if onlyTrusted {
		trusted := g.anat[:0:0]
		for _, a := range g.anat {
			if a.IsTrusted() {
				trusted = append(trusted, a)
			}
		}
		logging.FromContext(ctx).Debug().
			Int("anat_groups", len(g.anat)).
			Int("trusted", len(trusted)).
			Msg("Untrusted anat groups dropped")
		g.anat = trusted
	}
	return g, nil
}

func (c *client) emptyResult(taxonID int) *reconcile.Result {
	return &reconcile.Result{
		Metadata: reconcile.ResultMetadata{TaxonID: taxonID, Strategy: c.engine.Strategy().Name()},
	}
}

// descendsFrom reports whether the species is the taxon or lies below it.
// Species missing from the taxonomy are placed by their parent taxon.
func descendsFrom(tax *taxonomy.Taxonomy, sp similarity.Species, taxonID int) bool {
	if tax.Has(sp.ID) {
		return tax.IsSameOrDescendant(sp.ID, taxonID)
	}
	return tax.IsSameOrDescendant(sp.ParentTaxonID, taxonID)
}
