package forest

import (
	"slices"

	"github.com/siftql/sift/internal/expr"
)

// AddNode inserts node into the expression. With parent == expr.NoID the node
// becomes a root; otherwise parent must be an existing combinator and the
// node is appended to the end of its child list.
func (e Expression) AddNode(node expr.Query, parent expr.ID) (Expression, error) {
	const op = "addNode"

	id := node.NodeID()
	if id == expr.NoID {
		return Expression{}, errUnknownNode(op, id)
	}
	if e.Has(id) {
		return Expression{}, errDuplicateID(op, id)
	}
	if parent != expr.NoID {
		pq, ok := e.nodes[parent]
		if !ok {
			return Expression{}, errUnknownNode(op, parent)
		}
		if _, isCombinator := pq.(expr.ParentQuery); !isCombinator {
			return Expression{}, errNotCombinator(op, parent)
		}
	}

	next := e.clone()
	next.nodes[id] = node
	if parent == expr.NoID {
		next.roots[id] = struct{}{}
	} else {
		next.children[parent] = append(next.children[parent], id)
		next.parents[id] = parent
	}
	return next, nil
}

// UpdateNode replaces the stored node with the same id without touching
// structure. Used for editing a leaf's bounds or a combinator's operator in
// place. The replacement must keep the node's variant: swapping a combinator
// for a leaf would strand its children.
func (e Expression) UpdateNode(node expr.Query) (Expression, error) {
	const op = "updateNode"

	id := node.NodeID()
	prev, ok := e.nodes[id]
	if !ok {
		return Expression{}, errUnknownNode(op, id)
	}

	_, wasCombinator := prev.(expr.ParentQuery)
	_, isCombinator := node.(expr.ParentQuery)
	if wasCombinator != isCombinator {
		return Expression{}, &StructuralError{
			Reason:  ReasonVariantChange,
			Op:      op,
			NodeID:  id,
			Message: "update cannot change a node's variant",
		}
	}

	next := e.clone()
	next.nodes[id] = node
	return next, nil
}

// RemoveNode deletes id and its entire subtree, then fixes up the node's
// former parent (see collapse in the package doc).
func (e Expression) RemoveNode(id expr.ID) (Expression, error) {
	const op = "removeNode"

	if !e.Has(id) {
		return Expression{}, errUnknownNode(op, id)
	}

	next := e.clone()
	doomed := next.subtree(id)
	next.detach(id)
	for _, n := range doomed {
		delete(next.nodes, n)
		delete(next.children, n)
		delete(next.parents, n)
		delete(next.roots, n)
	}
	return next, nil
}

// ReparentNode detaches id from its current parent (with the same collapse
// fix-up as removal, but keeping the node) and attaches it under newParent,
// or promotes it to a root when newParent == expr.NoID.
//
// Moving a node into its own subtree is rejected: that is the one gesture
// that could turn the forest into a cyclic graph.
func (e Expression) ReparentNode(id, newParent expr.ID) (Expression, error) {
	const op = "reparentNode"

	if !e.Has(id) {
		return Expression{}, errUnknownNode(op, id)
	}
	cur, hasParent := e.parents[id]
	if hasParent && cur == newParent {
		return e, nil
	}
	if !hasParent && newParent == expr.NoID {
		return e, nil
	}
	if newParent != expr.NoID {
		pq, ok := e.nodes[newParent]
		if !ok {
			return Expression{}, errUnknownNode(op, newParent)
		}
		if _, isCombinator := pq.(expr.ParentQuery); !isCombinator {
			return Expression{}, errNotCombinator(op, newParent)
		}
		if slices.Contains(e.subtree(id), newParent) {
			return Expression{}, &StructuralError{
				Reason:  ReasonWouldCycle,
				Op:      op,
				NodeID:  id,
				Message: "cannot move a query into its own subtree",
			}
		}
	}

	next := e.clone()
	next.detach(id)

	if newParent == expr.NoID {
		next.roots[id] = struct{}{}
		return next, nil
	}
	// The only combinator a detach can elide is the node's former parent,
	// and moving under the current parent short-circuits above. Guarded
	// anyway so a future fix-up change cannot attach into a ghost.
	if !next.Has(newParent) {
		return Expression{}, errUnknownNode(op, newParent)
	}
	next.children[newParent] = append(next.children[newParent], id)
	next.parents[id] = newParent
	return next, nil
}

// ConnectQueries merges two top-level queries under a freshly allocated
// combinator: combinator becomes a new ParentQuery with the given operator
// and exactly the two children [target, query], and replaces them in the
// root set.
//
// Both inputs must currently be roots. The historical behavior of silently
// accepting parented inputs left the prior parent's child list stale, so it
// is rejected here instead. The combinator id is minted by the caller's
// generator; the engine only requires it to be fresh.
func (e Expression) ConnectQueries(target, query expr.ID, op expr.BoolOp, combinator expr.ID) (Expression, error) {
	const opName = "connectQueries"

	if target == query {
		return Expression{}, &StructuralError{
			Reason:  ReasonSelfConnect,
			Op:      opName,
			NodeID:  target,
			Message: "cannot connect a query to itself",
		}
	}
	if !e.Has(target) {
		return Expression{}, errUnknownNode(opName, target)
	}
	if !e.Has(query) {
		return Expression{}, errUnknownNode(opName, query)
	}
	for _, id := range []expr.ID{target, query} {
		if _, isRoot := e.roots[id]; !isRoot {
			return Expression{}, &StructuralError{
				Reason:  ReasonNotRoot,
				Op:      opName,
				NodeID:  id,
				Message: "only top-level queries can be connected",
			}
		}
	}
	if combinator == expr.NoID || e.Has(combinator) {
		return Expression{}, errDuplicateID(opName, combinator)
	}
	if !op.Valid() {
		return Expression{}, &StructuralError{
			Reason:  ReasonBadOperator,
			Op:      opName,
			Message: "unknown boolean operator",
		}
	}

	next := e.clone()
	next.nodes[combinator] = expr.ParentQuery{ID: combinator, Op: op}
	next.children[combinator] = []expr.ID{target, query}
	next.parents[target] = combinator
	next.parents[query] = combinator
	delete(next.roots, target)
	delete(next.roots, query)
	next.roots[combinator] = struct{}{}
	return next, nil
}

// detach unlinks id from its parent, applying the collapse fix-up to that
// parent. The node itself stays in the expression (and leaves the root set if
// it was a root); attaching it somewhere else is the caller's business.
//
// Collapse rules, applied to the former parent p:
//   - children[p] empty afterwards: p is deleted. Its own parent simply loses
//     the entry; the fix-up does not cascade a second level.
//   - exactly one child c left: p is deleted and c promoted into p's place -
//     appended to the grandparent's child list, or made a root when p was one.
func (next *Expression) detach(id expr.ID) {
	p, ok := next.parents[id]
	if !ok {
		delete(next.roots, id)
		return
	}
	delete(next.parents, id)
	next.removeChild(p, id)

	switch kids := next.children[p]; len(kids) {
	case 0:
		delete(next.children, p)
		next.deleteCombinator(p)
	case 1:
		c := kids[0]
		delete(next.children, p)
		delete(next.parents, c)
		if g, hasGrand := next.parents[p]; hasGrand {
			next.children[g] = append(next.children[g], c)
			next.parents[c] = g
		} else {
			next.roots[c] = struct{}{}
		}
		next.deleteCombinator(p)
	}
}

// deleteCombinator erases a collapsed combinator, detaching it from its own
// parent without a further fix-up pass.
func (next *Expression) deleteCombinator(p expr.ID) {
	if g, ok := next.parents[p]; ok {
		next.removeChild(g, p)
		delete(next.parents, p)
	}
	delete(next.roots, p)
	delete(next.nodes, p)
}

func (next *Expression) removeChild(parent, child expr.ID) {
	kids := next.children[parent]
	if i := slices.Index(kids, child); i >= 0 {
		kids = slices.Delete(kids, i, i+1)
		if len(kids) == 0 {
			delete(next.children, parent)
		} else {
			next.children[parent] = kids
		}
	}
}
