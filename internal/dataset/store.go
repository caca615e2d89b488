package dataset

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/orthology"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/sources"
	"github.com/exprmap/exprmap/pkg/taxonomy"
)

// Store is a read-only dataset. It is safe for concurrent use.
type Store struct {
	taxonomy   *taxonomy.Taxonomy
	species    []similarity.Species
	speciesIdx map[int]similarity.Species
	anat       map[string]similarity.AnatEntity
	stages     map[string]StageEntry
	genes      []similarity.Gene
	geneIdx    map[similarity.GeneKey]similarity.Gene
	relations  []AnatSimilarityEntry
	stageSets  []StageGroupEntry
	calls      []similarity.ExpressionCall
	hogs       *orthology.HOGTable
}

var _ sources.Provider = (*Store)(nil)

// New validates a document and builds a store. Species must be taxa of the
// taxonomy, and every gene, call and group must reference known entities.
// Calls are ordered by gene so that ExpressionCalls yields each gene
// contiguously.
func New(doc *Document) (*Store, error) {
	if doc == nil {
		return nil, errors.NewValidationError("document", nil, "dataset document is required")
	}
	b := taxonomy.NewBuilder()
	for _, t := range doc.Taxonomy {
		if t.Parent == 0 {
			b.AddRoot(t.ID, t.Name)
		} else {
			b.Add(t.ID, t.Name, t.Parent)
		}
	}
	tax, err := b.Build()
	if err != nil {
		return nil, err
	}

	s := &Store{
		taxonomy:   tax,
		speciesIdx: make(map[int]similarity.Species, len(doc.Species)),
		anat:       make(map[string]similarity.AnatEntity, len(doc.AnatEntities)),
		stages:     make(map[string]StageEntry, len(doc.DevStages)),
		geneIdx:    make(map[similarity.GeneKey]similarity.Gene, len(doc.Genes)),
		relations:  slices.Clone(doc.AnatSimilarities),
		stageSets:  slices.Clone(doc.StageGroups),
	}
	if err := s.loadEntities(doc); err != nil {
		return nil, err
	}
	if err := s.loadGroups(); err != nil {
		return nil, err
	}
	if err := s.loadCalls(doc.Calls); err != nil {
		return nil, err
	}
	if s.hogs, err = orthology.NewHOGTable(tax, doc.Orthology); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadEntities(doc *Document) error {
	for _, sp := range doc.Species {
		parent, ok, err := s.taxonomy.Parent(sp.ID)
		if err != nil {
			return errors.NewValidationError("species", sp.ID, fmt.Sprintf("species %d is not in the taxonomy", sp.ID))
		}
		if sp.ParentTaxonID == 0 && ok {
			sp.ParentTaxonID = parent.ID
		}
		if _, dup := s.speciesIdx[sp.ID]; dup {
			return errors.NewValidationError("species", sp.ID, fmt.Sprintf("duplicate species %d", sp.ID))
		}
		s.speciesIdx[sp.ID] = sp
		s.species = append(s.species, sp)
	}
	for _, a := range doc.AnatEntities {
		s.anat[a.ID] = a
	}
	for _, st := range doc.DevStages {
		s.stages[st.ID] = st
	}
	for _, g := range doc.Genes {
		if _, ok := s.speciesIdx[g.SpeciesID]; !ok {
			return errors.NewNotFoundError("species", strconv.Itoa(g.SpeciesID))
		}
		if _, dup := s.geneIdx[g.Key()]; dup {
			return errors.NewValidationError("genes", g.Key().String(), "duplicate gene "+g.Key().String())
		}
		s.geneIdx[g.Key()] = g
		s.genes = append(s.genes, g)
	}
	return nil
}

func (s *Store) loadGroups() error {
	for i, rel := range s.relations {
		if len(rel.Sources) == 0 || len(rel.Summaries) == 0 {
			return errors.NewValidationError("anat_similarities", i, "a relation needs sources and summaries")
		}
		for _, sum := range rel.Summaries {
			if !s.taxonomy.Has(sum.TaxonID) {
				return errors.NewNotFoundError("taxon", strconv.Itoa(sum.TaxonID))
			}
		}
	}
	for _, g := range s.stageSets {
		if !s.taxonomy.Has(g.TaxonID) {
			return errors.NewNotFoundError("taxon", strconv.Itoa(g.TaxonID))
		}
		if _, err := similarity.NewDevStageSimilarity(g.ID, g.Stages); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadCalls(entries []CallEntry) error {
	s.calls = make([]similarity.ExpressionCall, 0, len(entries))
	for _, e := range entries {
		gene, ok := s.geneIdx[similarity.GeneKey{ID: e.Gene, SpeciesID: e.SpeciesID}]
		if !ok {
			return errors.NewNotFoundError("gene", similarity.GeneKey{ID: e.Gene, SpeciesID: e.SpeciesID}.String())
		}
		callType, err := similarity.ParseSummaryCallType(e.Type)
		if err != nil {
			return errors.WrapValidation("calls", err)
		}
		quality := similarity.SummaryQuality(e.Quality)
		if e.Quality != "" && !quality.Valid() {
			return errors.NewValidationError("calls", e.Quality, "unknown call quality "+e.Quality)
		}
		if e.Anat == "" {
			return errors.NewValidationError("calls", gene.Key().String(), "call without anat entity")
		}
		if math.IsNaN(e.Rank) || math.IsInf(e.Rank, 0) || e.Rank < 0 {
			return errors.NewValidationError("calls", e.Rank,
				fmt.Sprintf("invalid rank %v for gene %s", e.Rank, gene.Key()))
		}
		s.calls = append(s.calls, similarity.ExpressionCall{
			Gene:      gene,
			Condition: similarity.Condition{AnatEntityID: e.Anat, DevStageID: e.Stage, SpeciesID: gene.SpeciesID},
			CallType:  callType,
			Quality:   quality,
			Observed:  e.Observed,
			Rank:      e.Rank,
		})
	}
	slices.SortStableFunc(s.calls, func(a, b similarity.ExpressionCall) int {
		return cmp.Or(cmp.Compare(a.Gene.ID, b.Gene.ID), cmp.Compare(a.Gene.SpeciesID, b.Gene.SpeciesID))
	})
	return nil
}

// Taxonomy implements sources.TaxonomyProvider.
func (s *Store) Taxonomy(ctx context.Context) (*taxonomy.Taxonomy, error) {
	return s.taxonomy, ctx.Err()
}

// AnatEntitySimilarities returns the relations valid in taxonID: those with a
// positive summary at taxonID or one of its ancestors. Only the summaries at
// taxonID or above it are kept.
func (s *Store) AnatEntitySimilarities(ctx context.Context, taxonID int) ([]*similarity.AnatEntitySimilarity, error) {
	requested, err := s.taxonomy.Taxon(taxonID)
	if err != nil {
		return nil, err
	}
	var groups []*similarity.AnatEntitySimilarity
	for _, rel := range s.relations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var summaries []similarity.AnatEntitySimilarityTaxonSummary
		positive := false
		for _, sum := range rel.Summaries {
			if !s.taxonomy.IsSameOrDescendant(taxonID, sum.TaxonID) {
				continue
			}
			taxon, _ := s.taxonomy.Taxon(sum.TaxonID)
			summaries = append(summaries, similarity.AnatEntitySimilarityTaxonSummary{
				Taxon: taxon, Trusted: sum.Trusted, Positive: sum.Positive,
			})
			positive = positive || sum.Positive
		}
		if !positive {
			continue
		}
		g, err := similarity.NewAnatEntitySimilarity(&requested, s.anatEntities(rel.Sources),
			s.anatEntities(rel.TransformationOf), summaries)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *Store) anatEntities(ids []string) []similarity.AnatEntity {
	out := make([]similarity.AnatEntity, len(ids))
	for i, id := range ids {
		if a, ok := s.anat[id]; ok {
			out[i] = a
		} else {
			out[i] = similarity.AnatEntity{ID: id}
		}
	}
	return out
}

// DevStageSimilarities returns the stage groups valid in taxonID, limited to
// the stages used by at least one of the species. Stages without a species
// restriction are used by every species.
func (s *Store) DevStageSimilarities(ctx context.Context, taxonID int, speciesIDs []int) ([]*similarity.DevStageSimilarity, error) {
	if !s.taxonomy.Has(taxonID) {
		return nil, errors.NewNotFoundError("taxon", strconv.Itoa(taxonID))
	}
	var groups []*similarity.DevStageSimilarity
	for _, g := range s.stageSets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.taxonomy.IsSameOrDescendant(taxonID, g.TaxonID) {
			continue
		}
		var members []string
		for _, id := range g.Stages {
			if s.stageUsedBy(id, speciesIDs) {
				members = append(members, id)
			}
		}
		if len(members) == 0 {
			continue
		}
		group, err := similarity.NewDevStageSimilarity(g.ID, members)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Store) stageUsedBy(stageID string, speciesIDs []int) bool {
	st, ok := s.stages[stageID]
	if !ok || len(st.SpeciesIDs) == 0 || len(speciesIDs) == 0 {
		return true
	}
	for _, id := range speciesIDs {
		if slices.Contains(st.SpeciesIDs, id) {
			return true
		}
	}
	return false
}

// Species implements sources.GeneProvider.
func (s *Store) Species(ctx context.Context, ids []int) ([]similarity.Species, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return slices.Clone(s.species), nil
	}
	out := make([]similarity.Species, 0, len(ids))
	for _, id := range ids {
		sp, ok := s.speciesIdx[id]
		if !ok {
			return nil, errors.NewNotFoundError("species", strconv.Itoa(id))
		}
		out = append(out, sp)
	}
	return out, nil
}

// Genes implements sources.GeneProvider. A filter on an unknown species is a
// NotFoundError; unknown gene ids are omitted.
func (s *Store) Genes(ctx context.Context, filters []similarity.GeneFilter) ([]similarity.Gene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if _, ok := s.speciesIdx[f.SpeciesID]; !ok {
			return nil, errors.NewNotFoundError("species", strconv.Itoa(f.SpeciesID))
		}
	}
	var out []similarity.Gene
	for _, g := range s.genes {
		if similarity.MatchesAny(filters, g) {
			out = append(out, g)
		}
	}
	return out, nil
}

// GenesByID implements sources.GeneProvider.
func (s *Store) GenesByID(ctx context.Context, ids []string) ([]similarity.Gene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []similarity.Gene
	for _, g := range s.genes {
		if slices.Contains(ids, g.ID) {
			out = append(out, g)
		}
	}
	return out, nil
}

// ExpressionCalls implements sources.CallProvider.
func (s *Store) ExpressionCalls(ctx context.Context, geneFilters []similarity.GeneFilter,
	conditionFilter *similarity.ConditionFilter) iter.Seq2[similarity.ExpressionCall, error] {
	return func(yield func(similarity.ExpressionCall, error) bool) {
		for _, c := range s.calls {
			if err := ctx.Err(); err != nil {
				yield(similarity.ExpressionCall{}, err)
				return
			}
			if !similarity.MatchesAny(geneFilters, c.Gene) || !conditionFilter.Matches(c.Condition) {
				continue
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

// Sorted reports true: calls are ordered by gene at load time.
func (s *Store) Sorted() bool {
	return true
}

// OrthologGroups implements sources.OrthologyProvider.
func (s *Store) OrthologGroups(ctx context.Context, taxonID int, genes []similarity.Gene) (map[similarity.GeneKey][]string, error) {
	return s.hogs.OrthologGroups(ctx, taxonID, genes)
}

// Stats returns the number of entities of each kind.
func (s *Store) Stats() map[string]int {
	return map[string]int{
		"taxa":              s.taxonomy.Len(),
		"species":           len(s.species),
		"genes":             len(s.genes),
		"anat_similarities": len(s.relations),
		"stage_groups":      len(s.stageSets),
		"calls":             len(s.calls),
		"ortholog_groups":   s.hogs.Len(),
	}
}
