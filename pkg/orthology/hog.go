package orthology

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/taxonomy"
)

// HOG is a hierarchical orthologous group: the genes descending from one
// ancestral gene at TaxonID. Nested groups point to their parent; Genes lists
// the genes attached directly to this group.
type HOG struct {
	ID       string               `json:"id" yaml:"id"`
	TaxonID  int                  `json:"taxon_id" yaml:"taxon_id"`
	ParentID string               `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Genes    []similarity.GeneKey `json:"genes,omitempty" yaml:"genes,omitempty"`
}

// HOGTable resolves genes through a hierarchy of orthologous groups. It
// implements sources.OrthologyProvider.
type HOGTable struct {
	taxonomy *taxonomy.Taxonomy
	groups   map[string]HOG
	byGene   map[similarity.GeneKey][]string
}

// NewHOGTable validates the hierarchy: ids are unique, parents exist and are
// defined at a strict ancestor of the child's taxon.
func NewHOGTable(tax *taxonomy.Taxonomy, hogs []HOG) (*HOGTable, error) {
	if tax == nil {
		return nil, errors.NewValidationError("taxonomy", nil, "taxonomy is required")
	}
	t := &HOGTable{
		taxonomy: tax,
		groups:   make(map[string]HOG, len(hogs)),
		byGene:   make(map[similarity.GeneKey][]string),
	}
	for _, h := range hogs {
		if h.ID == "" {
			return nil, errors.NewValidationError("hogs", nil, "group id cannot be empty")
		}
		if _, dup := t.groups[h.ID]; dup {
			return nil, errors.NewValidationError("hogs", h.ID, "duplicate group "+h.ID)
		}
		if !tax.Has(h.TaxonID) {
			return nil, errors.NewNotFoundError("taxon", strconv.Itoa(h.TaxonID))
		}
		h.Genes = slices.Clone(h.Genes)
		t.groups[h.ID] = h
		for _, g := range h.Genes {
			t.byGene[g] = append(t.byGene[g], h.ID)
		}
	}
	for _, h := range t.groups {
		if h.ParentID == "" {
			continue
		}
		parent, ok := t.groups[h.ParentID]
		if !ok {
			return nil, errors.NewNotFoundError("parent group", h.ParentID)
		}
		if !tax.IsAncestorOf(parent.TaxonID, h.TaxonID) {
			return nil, errors.NewValidationError("hogs", h.ID,
				fmt.Sprintf("parent %s at taxon %d is not above taxon %d", parent.ID, parent.TaxonID, h.TaxonID))
		}
	}
	return t, nil
}

// Resolve returns the group of a gene at taxonID: starting from each group
// the gene is attached to, the most general ancestor group still defined at
// taxonID or below it.
func (t *HOGTable) Resolve(taxonID int, gene similarity.GeneKey) []string {
	var ids []string
	for _, start := range t.byGene[gene] {
		best := ""
		for id := start; id != ""; id = t.groups[id].ParentID {
			if !t.taxonomy.IsSameOrDescendant(t.groups[id].TaxonID, taxonID) {
				break
			}
			best = id
		}
		if best != "" && !slices.Contains(ids, best) {
			ids = append(ids, best)
		}
	}
	return ids
}

// OrthologGroups resolves every gene at taxonID.
func (t *HOGTable) OrthologGroups(ctx context.Context, taxonID int, genes []similarity.Gene) (map[similarity.GeneKey][]string, error) {
	if !t.taxonomy.Has(taxonID) {
		return nil, errors.NewNotFoundError("taxon", strconv.Itoa(taxonID))
	}
	out := make(map[similarity.GeneKey][]string, len(genes))
	for _, g := range genes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ids := t.Resolve(taxonID, g.Key()); len(ids) > 0 {
			out[g.Key()] = ids
		}
	}
	return out, nil
}

// Len returns the number of groups.
func (t *HOGTable) Len() int {
	return len(t.groups)
}
