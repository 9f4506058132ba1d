package forest

import (
	"slices"

	"github.com/siftql/sift/internal/expr"
)

// Expression is the forest container: every node the editing session holds,
// plus the adjacency maps describing how they connect.
//
// The expression exclusively owns every node it contains. Field references
// inside leaf nodes are borrowed from the schema catalog and never mutated.
//
// Expression values are immutable by convention: the structural operations
// return a new value and leave the receiver untouched. Use New to create an
// empty expression.
type Expression struct {
	nodes    map[expr.ID]expr.Query
	roots    map[expr.ID]struct{}
	children map[expr.ID][]expr.ID
	parents  map[expr.ID]expr.ID
}

// New returns an empty expression.
func New() Expression {
	return Expression{
		nodes:    map[expr.ID]expr.Query{},
		roots:    map[expr.ID]struct{}{},
		children: map[expr.ID][]expr.ID{},
		parents:  map[expr.ID]expr.ID{},
	}
}

// FromParts assembles an expression directly from its four collections.
//
// Input is trusted as-is: no validation is performed, matching the load path
// contract (the persistence codec does not validate either - callers run
// Validate after loading from an untrusted source). All inputs are copied.
func FromParts(nodes map[expr.ID]expr.Query, roots []expr.ID, children map[expr.ID][]expr.ID, parents map[expr.ID]expr.ID) Expression {
	e := New()
	for id, q := range nodes {
		e.nodes[id] = q
	}
	for _, id := range roots {
		e.roots[id] = struct{}{}
	}
	for id, kids := range children {
		e.children[id] = slices.Clone(kids)
	}
	for id, p := range parents {
		e.parents[id] = p
	}
	return e
}

// clone returns a copy whose maps can be mutated without affecting e.
// Node values are immutable by convention and shared.
func (e Expression) clone() Expression {
	c := Expression{
		nodes:    make(map[expr.ID]expr.Query, len(e.nodes)),
		roots:    make(map[expr.ID]struct{}, len(e.roots)),
		children: make(map[expr.ID][]expr.ID, len(e.children)),
		parents:  make(map[expr.ID]expr.ID, len(e.parents)),
	}
	for id, q := range e.nodes {
		c.nodes[id] = q
	}
	for id := range e.roots {
		c.roots[id] = struct{}{}
	}
	for id, kids := range e.children {
		c.children[id] = slices.Clone(kids)
	}
	for id, p := range e.parents {
		c.parents[id] = p
	}
	return c
}

// Len returns the number of nodes.
func (e Expression) Len() int { return len(e.nodes) }

// IsEmpty reports whether the expression holds no nodes.
func (e Expression) IsEmpty() bool { return len(e.nodes) == 0 }

// Node returns the node with the given id.
func (e Expression) Node(id expr.ID) (expr.Query, bool) {
	q, ok := e.nodes[id]
	return q, ok
}

// Has reports whether a node with the given id exists.
func (e Expression) Has(id expr.ID) bool {
	_, ok := e.nodes[id]
	return ok
}

// NodeIDs returns every node id in ascending order.
func (e Expression) NodeIDs() []expr.ID {
	ids := make([]expr.ID, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Roots returns the root ids in ascending order.
func (e Expression) Roots() []expr.ID {
	ids := make([]expr.ID, 0, len(e.roots))
	for id := range e.roots {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Root returns the unique root id. ok is false unless the expression has
// exactly one root, i.e. is submission-eligible.
func (e Expression) Root() (expr.ID, bool) {
	if len(e.roots) != 1 {
		return expr.NoID, false
	}
	for id := range e.roots {
		return id, true
	}
	return expr.NoID, false // unreachable
}

// Children returns a copy of the ordered child list of id. The order is
// edit/insertion order and is the order used when re-serializing.
func (e Expression) Children(id expr.ID) []expr.ID {
	return slices.Clone(e.children[id])
}

// Parent returns the parent of id, if it has one. Nodes without a parent are
// roots.
func (e Expression) Parent(id expr.ID) (expr.ID, bool) {
	p, ok := e.parents[id]
	return p, ok
}

// MaxID returns the largest node id, or expr.NoID for an empty expression.
// Generators are reseeded past this value after a load so that newly minted
// ids cannot collide with loaded ones.
func (e Expression) MaxID() expr.ID {
	max := expr.NoID
	for id := range e.nodes {
		if id > max {
			max = id
		}
	}
	return max
}

// subtree returns id and every descendant reachable via the children map.
// The seen guard keeps traversal terminating even on a corrupt (cyclic)
// structure assembled via FromParts.
func (e Expression) subtree(id expr.ID) []expr.ID {
	var out []expr.ID
	seen := map[expr.ID]struct{}{}
	stack := []expr.ID{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		stack = append(stack, e.children[n]...)
	}
	return out
}
