package similarity

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/taxonomy"
)

// AnatEntitySimilarityTaxonSummary is the support for a similarity relation as
// annotated at one taxonomic level.
type AnatEntitySimilarityTaxonSummary struct {
	Taxon    taxonomy.Taxon `json:"taxon" yaml:"taxon"`
	Trusted  bool           `json:"trusted" yaml:"trusted"`
	Positive bool           `json:"positive" yaml:"positive"`
}

// AnatEntitySimilarity is a group of anatomical entities derived from a common
// ancestral structure, scoped to a requested taxon.
type AnatEntitySimilarity struct {
	sources          []AnatEntity
	transformationOf []AnatEntity
	all              []AnatEntity
	requestedTaxon   taxonomy.Taxon
	summaries        []AnatEntitySimilarityTaxonSummary
	key              string
}

// NewAnatEntitySimilarity validates and builds a similarity group.
//
// Entities are de-duplicated by id. Summaries are de-duplicated by taxon (the
// first occurrence wins) and sorted from the most specific taxon to the most
// general one; two distinct taxa at the same level are rejected.
func NewAnatEntitySimilarity(requestedTaxon *taxonomy.Taxon, sources, transformationOf []AnatEntity,
	summaries []AnatEntitySimilarityTaxonSummary) (*AnatEntitySimilarity, error) {
	if requestedTaxon == nil {
		return nil, errors.NewValidationError("requestedTaxon", nil, "requested taxon is required")
	}
	src, err := uniqueEntities("sourceAnatEntities", sources)
	if err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, errors.NewValidationError("sourceAnatEntities", nil, "at least one source anat entity is required")
	}
	trans, err := uniqueEntities("transformationOfAnatEntities", transformationOf)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, errors.NewValidationError("taxonSummaries", nil, "at least one taxon summary is required")
	}

	sorted, err := sortSummaries(summaries)
	if err != nil {
		return nil, err
	}

	all, _ := uniqueEntities("", append(slices.Clone(src), trans...))
	ids := make([]string, len(all))
	for i, e := range all {
		ids[i] = e.ID
	}

	return &AnatEntitySimilarity{
		sources:          src,
		transformationOf: trans,
		all:              all,
		requestedTaxon:   *requestedTaxon,
		summaries:        sorted,
		key:              strings.Join(ids, "|"),
	}, nil
}

// uniqueEntities copies entities, drops duplicate ids and sorts by id.
func uniqueEntities(field string, entities []AnatEntity) ([]AnatEntity, error) {
	seen := make(map[string]bool, len(entities))
	out := make([]AnatEntity, 0, len(entities))
	for _, e := range entities {
		if e.ID == "" {
			return nil, errors.NewValidationError(field, e, "anat entity id cannot be empty")
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func sortSummaries(summaries []AnatEntitySimilarityTaxonSummary) ([]AnatEntitySimilarityTaxonSummary, error) {
	seen := make(map[int]bool, len(summaries))
	out := make([]AnatEntitySimilarityTaxonSummary, 0, len(summaries))
	for _, s := range summaries {
		if seen[s.Taxon.ID] {
			continue
		}
		seen[s.Taxon.ID] = true
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Taxon.Level > out[j].Taxon.Level })
	for i := 1; i < len(out); i++ {
		if out[i].Taxon.Level == out[i-1].Taxon.Level {
			return nil, errors.NewValidationError("taxonSummaries", out[i].Taxon.ID,
				fmt.Sprintf("taxa %d and %d share level %d", out[i-1].Taxon.ID, out[i].Taxon.ID, out[i].Taxon.Level))
		}
	}
	return out, nil
}

// SourceAnatEntities returns the entities the relation is annotated from.
func (s *AnatEntitySimilarity) SourceAnatEntities() []AnatEntity {
	return slices.Clone(s.sources)
}

// TransformationOfAnatEntities returns the entities the sources are transformations of.
func (s *AnatEntitySimilarity) TransformationOfAnatEntities() []AnatEntity {
	return slices.Clone(s.transformationOf)
}

// AllAnatEntities returns the union of source and transformation-of entities, sorted by id.
func (s *AnatEntitySimilarity) AllAnatEntities() []AnatEntity {
	return slices.Clone(s.all)
}

// AllAnatEntityIDs returns the sorted ids of AllAnatEntities.
func (s *AnatEntitySimilarity) AllAnatEntityIDs() []string {
	ids := make([]string, len(s.all))
	for i, e := range s.all {
		ids[i] = e.ID
	}
	return ids
}

// Contains reports whether the anat entity belongs to the group.
func (s *AnatEntitySimilarity) Contains(anatEntityID string) bool {
	_, found := slices.BinarySearchFunc(s.all, anatEntityID, func(e AnatEntity, id string) int {
		return strings.Compare(e.ID, id)
	})
	return found
}

// RequestedTaxon returns the taxon the group was requested for.
func (s *AnatEntitySimilarity) RequestedTaxon() taxonomy.Taxon {
	return s.requestedTaxon
}

// TaxonSummaries returns the summaries, most specific taxon first.
func (s *AnatEntitySimilarity) TaxonSummaries() []AnatEntitySimilarityTaxonSummary {
	return slices.Clone(s.summaries)
}

// IsTrusted reports whether at least one summary is both positive and trusted.
func (s *AnatEntitySimilarity) IsTrusted() bool {
	for _, summary := range s.summaries {
		if summary.Positive && summary.Trusted {
			return true
		}
	}
	return false
}

// Key identifies the group by its sorted member ids.
func (s *AnatEntitySimilarity) Key() string {
	return s.key
}

// Equal reports whether both groups hold the same entities, taxon and summaries.
func (s *AnatEntitySimilarity) Equal(o *AnatEntitySimilarity) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.requestedTaxon == o.requestedTaxon &&
		slices.Equal(s.sources, o.sources) &&
		slices.Equal(s.transformationOf, o.transformationOf) &&
		slices.Equal(s.summaries, o.summaries)
}

// String returns a short description of the group
func (s *AnatEntitySimilarity) String() string {
	return fmt.Sprintf("AnatEntitySimilarity{%s, taxon=%d, trusted=%t}", s.key, s.requestedTaxon.ID, s.IsTrusted())
}
