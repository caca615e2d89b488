package taxonomy

import (
	"fmt"
	"strconv"

	"github.com/exprmap/exprmap/pkg/errors"
)

type entry struct {
	id        int
	name      string
	parentID  int
	hasParent bool
}

// Builder collects taxa and their parent links and produces a Taxonomy.
type Builder struct {
	entries []entry
}

// NewBuilder creates an empty taxonomy builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddRoot registers the root taxon.
func (b *Builder) AddRoot(id int, name string) *Builder {
	b.entries = append(b.entries, entry{id: id, name: name})
	return b
}

// Add registers a taxon under parentID. Parents may be added after their children.
func (b *Builder) Add(id int, name string, parentID int) *Builder {
	b.entries = append(b.entries, entry{id: id, name: name, parentID: parentID, hasParent: true})
	return b
}

// Build validates the collected taxa and computes levels and nested-set bounds.
// It fails on duplicate ids, unknown parents, zero or several roots, and cycles.
func (b *Builder) Build() (*Taxonomy, error) {
	n := len(b.entries)
	if n == 0 {
		return nil, errors.NewValidationError("taxa", nil, "taxonomy is empty")
	}

	t := &Taxonomy{
		nodes:  make([]Taxon, n),
		parent: make([]int32, n),
		left:   make([]int32, n),
		right:  make([]int32, n),
		order:  make([]int32, 0, n),
		index:  make(map[int]int32, n),
		root:   noParent,
	}

	for i, e := range b.entries {
		if _, dup := t.index[e.id]; dup {
			return nil, errors.NewValidationError("taxa", e.id, fmt.Sprintf("duplicate taxon %d", e.id))
		}
		t.index[e.id] = int32(i)
		t.nodes[i] = Taxon{ID: e.id, ScientificName: e.name}
	}

	children := make([][]int32, n)
	for i, e := range b.entries {
		if !e.hasParent {
			if t.root != noParent {
				return nil, errors.NewValidationError("taxa", e.id,
					fmt.Sprintf("several roots: %d and %d", t.nodes[t.root].ID, e.id))
			}
			t.root = int32(i)
			t.parent[i] = noParent
			continue
		}
		p, ok := t.index[e.parentID]
		if !ok {
			return nil, errors.NewNotFoundError("parent taxon", strconv.Itoa(e.parentID))
		}
		t.parent[i] = p
		children[p] = append(children[p], int32(i))
	}
	if t.root == noParent {
		return nil, errors.NewValidationError("taxa", nil, "taxonomy has no root")
	}

	t.number(children)
	if len(t.order) != n {
		return nil, errors.NewValidationError("taxa", nil, "taxonomy contains a cycle detached from the root")
	}

	return t, nil
}

// number walks the tree from the root without recursion, assigning levels,
// depth-first order and nested-set bounds.
func (t *Taxonomy) number(children [][]int32) {
	type frame struct {
		node int32
		next int
	}
	counter := int32(0)
	stack := []frame{{node: t.root}}
	t.nodes[t.root].Level = 1
	t.left[t.root] = counter
	t.order = append(t.order, t.root)
	counter++

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(children[top.node]) {
			child := children[top.node][top.next]
			top.next++
			t.nodes[child].Level = t.nodes[top.node].Level + 1
			t.left[child] = counter
			t.order = append(t.order, child)
			counter++
			stack = append(stack, frame{node: child})
			continue
		}
		t.right[top.node] = counter
		counter++
		stack = stack[:len(stack)-1]
	}
}
