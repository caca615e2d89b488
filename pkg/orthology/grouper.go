// Package orthology resolves genes to orthologous groups at a requested
// taxonomic level.
package orthology

import (
	"context"
	"slices"
	"sort"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/sources"
)

// Grouper groups genes by orthologous group using a provider.
type Grouper struct {
	provider sources.OrthologyProvider
}

// NewGrouper creates a grouper.
func NewGrouper(provider sources.OrthologyProvider) *Grouper {
	return &Grouper{provider: provider}
}

// Grouping maps orthologous groups to their member genes.
type Grouping struct {
	taxonID  int
	ids      []string
	members  map[string][]similarity.Gene
	groupOf  map[similarity.GeneKey]string
	excluded []similarity.Gene
}

// GroupByOrthology resolves the group of every gene at taxonID. Genes in no
// group are excluded; a gene in several groups is an integrity error.
func (g *Grouper) GroupByOrthology(ctx context.Context, taxonID int, genes []similarity.Gene) (*Grouping, error) {
	if g.provider == nil {
		return nil, errors.NewConfigError("orthology", "no orthology provider configured", errors.ErrNotImplemented)
	}
	resolved, err := g.provider.OrthologGroups(ctx, taxonID, genes)
	if err != nil {
		return nil, errors.WrapResource("fetch", "ortholog groups", "", err)
	}

	logger := logging.FromContext(ctx)
	grouping := &Grouping{
		taxonID: taxonID,
		members: make(map[string][]similarity.Gene),
		groupOf: make(map[similarity.GeneKey]string),
	}
	for _, gene := range genes {
		key := gene.Key()
		if _, done := grouping.groupOf[key]; done {
			continue
		}
		ids := slices.Compact(slices.Sorted(slices.Values(resolved[key])))
		switch len(ids) {
		case 0:
			logger.Debug().Str("gene_id", gene.ID).Int("species_id", gene.SpeciesID).Int("taxon_id", taxonID).
				Msg("Gene in no orthologous group")
			grouping.excluded = append(grouping.excluded, gene)
			continue
		case 1:
		default:
			return nil, errors.NewIntegrityError("gene", key.String(), taxonID, ids)
		}
		id := ids[0]
		if _, known := grouping.members[id]; !known {
			grouping.ids = append(grouping.ids, id)
		}
		grouping.members[id] = append(grouping.members[id], gene)
		grouping.groupOf[key] = id
	}
	sort.Strings(grouping.ids)
	return grouping, nil
}

// TaxonID returns the taxon the groups are defined at.
func (g *Grouping) TaxonID() int {
	return g.taxonID
}

// GroupIDs returns the sorted group ids.
func (g *Grouping) GroupIDs() []string {
	return slices.Clone(g.ids)
}

// Genes returns the members of a group in input order.
func (g *Grouping) Genes(groupID string) []similarity.Gene {
	return slices.Clone(g.members[groupID])
}

// GroupOf returns the group of a gene.
func (g *Grouping) GroupOf(key similarity.GeneKey) (string, bool) {
	id, ok := g.groupOf[key]
	return id, ok
}

// Excluded returns the genes in no group.
func (g *Grouping) Excluded() []similarity.Gene {
	return slices.Clone(g.excluded)
}

// Len returns the number of groups.
func (g *Grouping) Len() int {
	return len(g.ids)
}
