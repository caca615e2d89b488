// Package taxonomy holds the species phylogenetic tree used to scope similarity
// groups and orthology. The tree is stored as an arena: taxa live in a slice and
// refer to each other by index, with levels and nested-set bounds computed once
// at build time so that ancestor and level queries are O(1).
package taxonomy

import (
	"strconv"

	"github.com/exprmap/exprmap/pkg/errors"
)

// Taxon is a node of the species tree.
// Level is the depth of the taxon in the tree, the root having level 1.
type Taxon struct {
	ID             int    `json:"id" yaml:"id"`
	ScientificName string `json:"scientific_name" yaml:"scientific_name"`
	Level          int    `json:"level" yaml:"level"`
}

// noParent marks the root in the parent table.
const noParent = -1

// Taxonomy is an immutable single-rooted taxonomy tree.
type Taxonomy struct {
	nodes  []Taxon
	parent []int32
	left   []int32
	right  []int32
	order  []int32
	index  map[int]int32
	root   int32
}

// Len returns the number of taxa.
func (t *Taxonomy) Len() int {
	return len(t.nodes)
}

// Root returns the root taxon.
func (t *Taxonomy) Root() Taxon {
	return t.nodes[t.root]
}

// Has reports whether the taxon exists.
func (t *Taxonomy) Has(id int) bool {
	_, ok := t.index[id]
	return ok
}

// Taxon returns the taxon with the given id.
func (t *Taxonomy) Taxon(id int) (Taxon, error) {
	i, ok := t.index[id]
	if !ok {
		return Taxon{}, errors.NewNotFoundError("taxon", strconv.Itoa(id))
	}
	return t.nodes[i], nil
}

// Level returns the level of the taxon.
func (t *Taxonomy) Level(id int) (int, error) {
	taxon, err := t.Taxon(id)
	if err != nil {
		return 0, err
	}
	return taxon.Level, nil
}

// Parent returns the parent of the taxon. The boolean is false for the root.
func (t *Taxonomy) Parent(id int) (Taxon, bool, error) {
	i, ok := t.index[id]
	if !ok {
		return Taxon{}, false, errors.NewNotFoundError("taxon", strconv.Itoa(id))
	}
	p := t.parent[i]
	if p == noParent {
		return Taxon{}, false, nil
	}
	return t.nodes[p], true, nil
}

// Ancestors returns the strict ancestors of the taxon, closest first.
func (t *Taxonomy) Ancestors(id int) ([]Taxon, error) {
	i, ok := t.index[id]
	if !ok {
		return nil, errors.NewNotFoundError("taxon", strconv.Itoa(id))
	}
	ancestors := make([]Taxon, 0, t.nodes[i].Level-1)
	for p := t.parent[i]; p != noParent; p = t.parent[p] {
		ancestors = append(ancestors, t.nodes[p])
	}
	return ancestors, nil
}

// IsAncestorOf reports whether ancestorID is a strict ancestor of id.
// Unknown ids are never ancestors.
func (t *Taxonomy) IsAncestorOf(ancestorID, id int) bool {
	a, ok := t.index[ancestorID]
	if !ok {
		return false
	}
	d, ok := t.index[id]
	if !ok {
		return false
	}
	return a != d && t.contains(a, d)
}

// IsSameOrDescendant reports whether id is ancestorID or lies below it.
func (t *Taxonomy) IsSameOrDescendant(id, ancestorID int) bool {
	a, ok := t.index[ancestorID]
	if !ok {
		return false
	}
	d, ok := t.index[id]
	if !ok {
		return false
	}
	return t.contains(a, d)
}

// LeastCommonAncestor returns the most specific taxon that is the same as or an
// ancestor of every given taxon.
func (t *Taxonomy) LeastCommonAncestor(ids ...int) (Taxon, error) {
	if len(ids) == 0 {
		return Taxon{}, errors.NewValidationError("taxonIDs", ids, "at least one taxon is required")
	}
	members := make([]int32, 0, len(ids))
	for _, id := range ids {
		i, ok := t.index[id]
		if !ok {
			return Taxon{}, errors.NewNotFoundError("taxon", strconv.Itoa(id))
		}
		members = append(members, i)
	}

	for candidate := members[0]; candidate != noParent; candidate = t.parent[candidate] {
		all := true
		for _, m := range members[1:] {
			if !t.contains(candidate, m) {
				all = false
				break
			}
		}
		if all {
			return t.nodes[candidate], nil
		}
	}
	// unreachable for a single-rooted tree
	return t.nodes[t.root], nil
}

// Taxa returns every taxon in depth-first order from the root.
func (t *Taxonomy) Taxa() []Taxon {
	ordered := make([]Taxon, len(t.order))
	for i, n := range t.order {
		ordered[i] = t.nodes[n]
	}
	return ordered
}

// contains reports whether node d lies in the subtree of node a (inclusive).
func (t *Taxonomy) contains(a, d int32) bool {
	return t.left[a] <= t.left[d] && t.right[d] <= t.right[a]
}
