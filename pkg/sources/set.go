package sources

import (
	"fmt"
	"strings"

	"github.com/exprmap/exprmap/pkg/errors"
)

// ID represents the identifier of a collaborator.
type ID string

// String returns the string representation of a collaborator id.
func (id ID) String() string {
	return string(id)
}

// Collaborator ids.
const (
	TaxonomyID   ID = "taxonomy"
	SimilarityID ID = "similarity"
	GenesID      ID = "genes"
	CallsID      ID = "calls"
	OrthologyID  ID = "orthology"
)

// IDs returns every collaborator id.
func IDs() []ID {
	return []ID{TaxonomyID, SimilarityID, GenesID, CallsID, OrthologyID}
}

// Set holds the collaborators of a client. Unset collaborators are nil.
type Set struct {
	Taxonomy     TaxonomyProvider
	Similarities SimilarityProvider
	Genes        GeneProvider
	Calls        CallProvider
	Orthology    OrthologyProvider
}

// Option configures a Set.
type Option func(*Set)

// NewSet creates a Set from options. Later options override earlier ones.
func NewSet(opts ...Option) *Set {
	s := &Set{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithProvider sets every collaborator to p.
func WithProvider(p Provider) Option {
	return func(s *Set) {
		s.Taxonomy, s.Similarities, s.Genes, s.Calls, s.Orthology = p, p, p, p, p
	}
}

// WithTaxonomy sets the taxonomy collaborator.
func WithTaxonomy(p TaxonomyProvider) Option {
	return func(s *Set) { s.Taxonomy = p }
}

// WithSimilarities sets the similarity group collaborator.
func WithSimilarities(p SimilarityProvider) Option {
	return func(s *Set) { s.Similarities = p }
}

// WithGenes sets the gene collaborator.
func WithGenes(p GeneProvider) Option {
	return func(s *Set) { s.Genes = p }
}

// WithCalls sets the observation collaborator.
func WithCalls(p CallProvider) Option {
	return func(s *Set) { s.Calls = p }
}

// WithOrthology sets the orthology collaborator.
func WithOrthology(p OrthologyProvider) Option {
	return func(s *Set) { s.Orthology = p }
}

// Has reports whether the collaborator is set.
func (s *Set) Has(id ID) bool {
	switch id {
	case TaxonomyID:
		return s.Taxonomy != nil
	case SimilarityID:
		return s.Similarities != nil
	case GenesID:
		return s.Genes != nil
	case CallsID:
		return s.Calls != nil
	case OrthologyID:
		return s.Orthology != nil
	}
	return false
}

// Validate checks that the required collaborators are set.
func (s *Set) Validate(required ...ID) error {
	var missing []string
	for _, id := range required {
		if !s.Has(id) {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return errors.NewConfigError("sources", fmt.Sprintf("missing collaborators: %s", strings.Join(missing, ", ")), errors.ErrNotImplemented)
	}
	return nil
}
