package similarity

import (
	"maps"
	"slices"
	"sort"

	"github.com/exprmap/exprmap/pkg/errors"
)

// MultiGeneExprCounts summarises the calls of a gene set in one condition.
type MultiGeneExprCounts struct {
	byType map[SummaryCallType][]Gene
	noData []Gene
	ranks  map[GeneKey]float64
}

// NewMultiGeneExprCounts builds counts from genes per call type, genes
// without data and the best observed rank of genes having one.
func NewMultiGeneExprCounts(byType map[SummaryCallType][]Gene, noData []Gene, ranks map[GeneKey]float64) (*MultiGeneExprCounts, error) {
	counts := &MultiGeneExprCounts{
		byType: make(map[SummaryCallType][]Gene, len(byType)),
		noData: sortGenes(noData),
		ranks:  maps.Clone(ranks),
	}
	withData := make(map[GeneKey]bool)
	for t, genes := range byType {
		if !t.Valid() {
			return nil, errors.NewValidationError("callType", t, "unknown call type")
		}
		if len(genes) == 0 {
			continue
		}
		counts.byType[t] = sortGenes(genes)
		for _, g := range genes {
			withData[g.Key()] = true
		}
	}
	for _, g := range counts.noData {
		if withData[g.Key()] {
			return nil, errors.NewValidationError("noDataGenes", g.Key().String(), "gene has data in this condition")
		}
	}
	for key := range counts.ranks {
		if !withData[key] {
			return nil, errors.NewValidationError("ranks", key.String(), "rank given for a gene without data")
		}
	}
	if counts.ranks == nil {
		counts.ranks = map[GeneKey]float64{}
	}
	return counts, nil
}

func sortGenes(genes []Gene) []Gene {
	out := slices.Clone(genes)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SpeciesID != out[j].SpeciesID {
			return out[i].SpeciesID < out[j].SpeciesID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Genes returns the genes whose reconciled call has type t.
func (c *MultiGeneExprCounts) Genes(t SummaryCallType) []Gene {
	return slices.Clone(c.byType[t])
}

// Count returns the number of genes whose reconciled call has type t.
func (c *MultiGeneExprCounts) Count(t SummaryCallType) int {
	return len(c.byType[t])
}

// NoDataGenes returns the requested genes without any call in the condition.
func (c *MultiGeneExprCounts) NoDataGenes() []Gene {
	return slices.Clone(c.noData)
}

// GenesWithData returns every gene with a call in the condition.
func (c *MultiGeneExprCounts) GenesWithData() []Gene {
	var genes []Gene
	for _, t := range SummaryCallTypes {
		genes = append(genes, c.byType[t]...)
	}
	return sortGenes(genes)
}

// Rank returns the best observed rank of a gene, if any.
func (c *MultiGeneExprCounts) Rank(key GeneKey) (float64, bool) {
	r, ok := c.ranks[key]
	return r, ok
}

// Ranks returns a copy of the best observed rank per gene.
func (c *MultiGeneExprCounts) Ranks() map[GeneKey]float64 {
	return maps.Clone(c.ranks)
}

// ConditionCounts pairs a condition with its counts.
type ConditionCounts struct {
	Condition *MultiSpeciesCondition
	Counts    *MultiGeneExprCounts
}

// MultiSpeciesExprAnalysis is the comparison of a gene set across the
// conditions shared by their species.
type MultiSpeciesExprAnalysis struct {
	requestedGeneIDs []string
	notFoundGeneIDs  []string
	genes            []Gene
	entries          []ConditionCounts
	index            map[string]int
}

// NewMultiSpeciesExprAnalysis builds an analysis. Entries keep their order;
// two entries for the same condition are rejected.
func NewMultiSpeciesExprAnalysis(requestedGeneIDs, notFoundGeneIDs []string, genes []Gene,
	entries []ConditionCounts) (*MultiSpeciesExprAnalysis, error) {
	a := &MultiSpeciesExprAnalysis{
		requestedGeneIDs: slices.Clone(requestedGeneIDs),
		notFoundGeneIDs:  slices.Clone(notFoundGeneIDs),
		genes:            sortGenes(genes),
		entries:          make([]ConditionCounts, 0, len(entries)),
		index:            make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Condition == nil || e.Counts == nil {
			return nil, errors.NewValidationError("conditions", nil, "condition and counts are required")
		}
		key := e.Condition.Key()
		if _, dup := a.index[key]; dup {
			return nil, errors.NewValidationError("conditions", key, "duplicate condition")
		}
		a.index[key] = len(a.entries)
		a.entries = append(a.entries, e)
	}
	return a, nil
}

// RequestedGeneIDs returns the gene ids as requested.
func (a *MultiSpeciesExprAnalysis) RequestedGeneIDs() []string {
	return slices.Clone(a.requestedGeneIDs)
}

// NotFoundGeneIDs returns the requested ids matching no known gene.
func (a *MultiSpeciesExprAnalysis) NotFoundGeneIDs() []string {
	return slices.Clone(a.notFoundGeneIDs)
}

// Genes returns the resolved genes.
func (a *MultiSpeciesExprAnalysis) Genes() []Gene {
	return slices.Clone(a.genes)
}

// Conditions returns the analysed conditions in order.
func (a *MultiSpeciesExprAnalysis) Conditions() []*MultiSpeciesCondition {
	conds := make([]*MultiSpeciesCondition, len(a.entries))
	for i, e := range a.entries {
		conds[i] = e.Condition
	}
	return conds
}

// Counts returns the counts of a condition.
func (a *MultiSpeciesExprAnalysis) Counts(cond *MultiSpeciesCondition) (*MultiGeneExprCounts, bool) {
	i, ok := a.index[cond.Key()]
	if !ok {
		return nil, false
	}
	return a.entries[i].Counts, true
}

// Entries returns every condition with its counts, in order.
func (a *MultiSpeciesExprAnalysis) Entries() []ConditionCounts {
	return slices.Clone(a.entries)
}

// Len returns the number of conditions.
func (a *MultiSpeciesExprAnalysis) Len() int {
	return len(a.entries)
}

// MultiSpeciesCall groups the reconciled calls of the genes of one
// orthologous group in one condition.
type MultiSpeciesCall struct {
	condition       *MultiSpeciesCondition
	taxonID         int
	orthologGroupID string
	geneIDs         []string
	calls           []*SimilarityExpressionCall
	score           float64
	scored          bool
}

// NewMultiSpeciesCall validates and builds an unscored call. Every
// similarity call must be in condition.
func NewMultiSpeciesCall(condition *MultiSpeciesCondition, taxonID int, orthologGroupID string,
	calls []*SimilarityExpressionCall) (*MultiSpeciesCall, error) {
	if condition == nil {
		return nil, errors.NewValidationError("condition", nil, "multi-species condition is required")
	}
	if orthologGroupID == "" {
		return nil, errors.NewValidationError("orthologGroupID", nil, "ortholog group id cannot be empty")
	}
	if len(calls) == 0 {
		return nil, errors.NewValidationError("calls", orthologGroupID, "at least one similarity call is required")
	}
	ids := make([]string, 0, len(calls))
	for _, c := range calls {
		if c == nil || c.Condition().Key() != condition.Key() {
			return nil, errors.NewValidationError("calls", orthologGroupID, "call outside of condition "+condition.Key())
		}
		ids = append(ids, c.Gene().ID)
	}
	sort.Strings(ids)
	return &MultiSpeciesCall{
		condition:       condition,
		taxonID:         taxonID,
		orthologGroupID: orthologGroupID,
		geneIDs:         slices.Compact(ids),
		calls:           slices.Clone(calls),
	}, nil
}

// WithConservationScore returns a copy of the call carrying score.
func (c *MultiSpeciesCall) WithConservationScore(score float64) *MultiSpeciesCall {
	scored := *c
	scored.score = score
	scored.scored = true
	return &scored
}

// Condition returns the condition.
func (c *MultiSpeciesCall) Condition() *MultiSpeciesCondition { return c.condition }

// TaxonID returns the taxon the orthologous group is defined at.
func (c *MultiSpeciesCall) TaxonID() int { return c.taxonID }

// OrthologGroupID returns the orthologous group.
func (c *MultiSpeciesCall) OrthologGroupID() string { return c.orthologGroupID }

// GeneIDs returns the sorted ids of the member genes.
func (c *MultiSpeciesCall) GeneIDs() []string { return slices.Clone(c.geneIDs) }

// Calls returns the underlying similarity calls.
func (c *MultiSpeciesCall) Calls() []*SimilarityExpressionCall { return slices.Clone(c.calls) }

// ConservationScore returns the score; the boolean is false until scored.
func (c *MultiSpeciesCall) ConservationScore() (float64, bool) { return c.score, c.scored }

// SpeciesIDs returns the sorted distinct species of the member genes.
func (c *MultiSpeciesCall) SpeciesIDs() []int {
	ids := make([]int, 0, len(c.calls))
	for _, call := range c.calls {
		ids = append(ids, call.Gene().SpeciesID)
	}
	sort.Ints(ids)
	return slices.Compact(ids)
}
