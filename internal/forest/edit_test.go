package forest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/testutil"
)

func leafOne() expr.EqualityQuery {
	return testutil.Leaf(1, testutil.NumField("orders", "x"), nil, testutil.NumBound(expr.OpEq, "5"))
}

func leafTwo() expr.EqualityQuery {
	return testutil.Leaf(2, testutil.NumField("orders", "y"), nil, testutil.NumBound(expr.OpLt, "8"))
}

// checkInvariants asserts the forest invariants that must hold after every
// completed public operation.
func checkInvariants(t *testing.T, e Expression) {
	t.Helper()

	// 1. Referential integrity: every referenced id exists.
	for _, id := range e.Roots() {
		assert.True(t, e.Has(id), "root %s must exist", id)
	}
	for _, id := range e.NodeIDs() {
		for _, c := range e.Children(id) {
			assert.True(t, e.Has(c), "child %s of %s must exist", c, id)
		}
		if p, ok := e.Parent(id); ok {
			assert.True(t, e.Has(p), "parent %s of %s must exist", p, id)
		}
	}

	// 2. Roots are exactly the parentless nodes.
	rootSet := map[expr.ID]bool{}
	for _, id := range e.Roots() {
		rootSet[id] = true
	}
	for _, id := range e.NodeIDs() {
		_, hasParent := e.Parent(id)
		assert.NotEqual(t, hasParent, rootSet[id], "node %s: root iff parentless", id)
	}

	// 3. children/parents mirror each other and only combinators have children.
	for _, id := range e.NodeIDs() {
		kids := e.Children(id)
		if len(kids) > 0 {
			node, _ := e.Node(id)
			assert.IsType(t, expr.ParentQuery{}, node, "node %s with children must be a combinator", id)
		}
		for _, c := range kids {
			p, ok := e.Parent(c)
			assert.True(t, ok, "child %s must have a parent entry", c)
			assert.Equal(t, id, p, "child %s must point back at %s", c, id)
		}
	}

	// 4. Forest, not a graph.
	assert.True(t, e.IsValid(), "no cycles or orphans after a completed edit")

	// 5. No combinator survives with fewer than two children.
	for _, id := range e.NodeIDs() {
		node, _ := e.Node(id)
		if _, ok := node.(expr.ParentQuery); ok {
			assert.GreaterOrEqual(t, len(e.Children(id)), 2, "combinator %s must keep >=2 children", id)
		}
	}
}

func TestAddNode_Root(t *testing.T) {
	e, err := New().AddNode(leafOne(), expr.NoID)
	require.NoError(t, err)

	assert.Equal(t, []expr.ID{1}, e.Roots())
	assert.Equal(t, 1, e.Len())
	checkInvariants(t, e)
}

func TestAddNode_UnderCombinator(t *testing.T) {
	e := connected(t)

	extra := testutil.Leaf(4, testutil.NumField("orders", "z"), nil, testutil.NumBound(expr.OpLte, "9"))
	next, err := e.AddNode(extra, 3)
	require.NoError(t, err)

	assert.Equal(t, []expr.ID{1, 2, 4}, next.Children(3), "appended at the end, preserving order")
	p, ok := next.Parent(4)
	require.True(t, ok)
	assert.Equal(t, expr.ID(3), p)
	checkInvariants(t, next)

	// The prior value is unchanged.
	assert.Equal(t, 3, e.Len())
}

func TestAddNode_InvalidParent(t *testing.T) {
	e, err := New().AddNode(leafOne(), expr.NoID)
	require.NoError(t, err)

	_, err = e.AddNode(leafTwo(), 99)
	require.Error(t, err)
	assert.Equal(t, ReasonUnknownNode, ReasonOf(err))

	// A leaf cannot be a parent.
	_, err = e.AddNode(leafTwo(), 1)
	require.Error(t, err)
	assert.Equal(t, ReasonNotCombinator, ReasonOf(err))

	_, err = e.AddNode(leafOne(), expr.NoID)
	require.Error(t, err)
	assert.Equal(t, ReasonDuplicateID, ReasonOf(err))
}

func TestUpdateNode_ReplacesInPlace(t *testing.T) {
	e, err := New().AddNode(leafOne(), expr.NoID)
	require.NoError(t, err)

	edited := testutil.Leaf(1, testutil.NumField("orders", "x"), testutil.NumBound(expr.OpLt, "3"), testutil.NumBound(expr.OpLt, "8"))
	next, err := e.UpdateNode(edited)
	require.NoError(t, err)

	got, ok := next.Node(1)
	require.True(t, ok)
	assert.Equal(t, edited, got)

	// Structure untouched.
	assert.Equal(t, []expr.ID{1}, next.Roots())

	// The prior value still holds the old node.
	prev, _ := e.Node(1)
	assert.Equal(t, leafOne(), prev)
}

func TestUpdateNode_Errors(t *testing.T) {
	e := connected(t)

	_, err := e.UpdateNode(testutil.Leaf(99, testutil.NumField("orders", "x"), nil, nil))
	assert.Equal(t, ReasonUnknownNode, ReasonOf(err))

	// Swapping the combinator for a leaf would strand its children.
	_, err = e.UpdateNode(testutil.Leaf(3, testutil.NumField("orders", "x"), nil, nil))
	assert.Equal(t, ReasonVariantChange, ReasonOf(err))

	// Changing the combinator's operator is the legitimate use.
	next, err := e.UpdateNode(testutil.Combinator(3, expr.BoolOr))
	require.NoError(t, err)
	node, _ := next.Node(3)
	assert.Equal(t, expr.BoolOr, node.(expr.ParentQuery).Op)
	checkInvariants(t, next)
}

// connected builds the Scenario B fixture: leaves 1 and 2 merged under
// combinator 3 with AND.
func connected(t *testing.T) Expression {
	t.Helper()

	e, err := New().AddNode(leafOne(), expr.NoID)
	require.NoError(t, err)
	e, err = e.AddNode(leafTwo(), expr.NoID)
	require.NoError(t, err)
	assert.Equal(t, []expr.ID{1, 2}, e.Roots())

	e, err = e.ConnectQueries(1, 2, expr.BoolAnd, 3)
	require.NoError(t, err)
	return e
}

func TestConnectQueries(t *testing.T) {
	e := connected(t)

	assert.Equal(t, []expr.ID{3}, e.Roots())
	assert.Equal(t, []expr.ID{1, 2}, e.Children(3))
	p1, _ := e.Parent(1)
	p2, _ := e.Parent(2)
	assert.Equal(t, expr.ID(3), p1)
	assert.Equal(t, expr.ID(3), p2)

	node, ok := e.Node(3)
	require.True(t, ok)
	assert.Equal(t, expr.ParentQuery{ID: 3, Op: expr.BoolAnd}, node)
	checkInvariants(t, e)
}

func TestConnectQueries_Errors(t *testing.T) {
	e, err := New().AddNode(leafOne(), expr.NoID)
	require.NoError(t, err)
	e, err = e.AddNode(leafTwo(), expr.NoID)
	require.NoError(t, err)

	_, err = e.ConnectQueries(1, 1, expr.BoolAnd, 3)
	assert.Equal(t, ReasonSelfConnect, ReasonOf(err))

	_, err = e.ConnectQueries(1, 99, expr.BoolAnd, 3)
	assert.Equal(t, ReasonUnknownNode, ReasonOf(err))

	_, err = e.ConnectQueries(1, 2, expr.BoolOp("nand"), 3)
	assert.Equal(t, ReasonBadOperator, ReasonOf(err))

	_, err = e.ConnectQueries(1, 2, expr.BoolAnd, 2)
	assert.Equal(t, ReasonDuplicateID, ReasonOf(err))

	// Once connected, the inputs are no longer roots and cannot be
	// connected again - the historical silent stale-child behavior is
	// rejected outright.
	merged, err := e.ConnectQueries(1, 2, expr.BoolAnd, 3)
	require.NoError(t, err)
	other, err := merged.AddNode(testutil.Leaf(4, testutil.NumField("orders", "z"), nil, testutil.NumBound(expr.OpEq, "1")), expr.NoID)
	require.NoError(t, err)
	_, err = other.ConnectQueries(1, 4, expr.BoolOr, 5)
	assert.Equal(t, ReasonNotRoot, ReasonOf(err))
}

func TestRemoveNode_CollapsesCombinator(t *testing.T) {
	// Scenario C: removing one of the two children elides the combinator.
	e := connected(t)

	next, err := e.RemoveNode(2)
	require.NoError(t, err)

	assert.Equal(t, []expr.ID{1}, next.Roots())
	assert.False(t, next.Has(3), "combinator must be fully elided")
	assert.False(t, next.Has(2))
	assert.Equal(t, 1, next.Len())
	checkInvariants(t, next)

	// Structurally equal to an expression containing only leaf 1 as a root.
	only, err := New().AddNode(leafOne(), expr.NoID)
	require.NoError(t, err)
	assert.Equal(t, only, next)
}

func TestRemoveNode_Subtree(t *testing.T) {
	e := connected(t)
	extra, err := e.AddNode(testutil.Leaf(4, testutil.NumField("orders", "z"), nil, testutil.NumBound(expr.OpEq, "1")), expr.NoID)
	require.NoError(t, err)
	merged, err := extra.ConnectQueries(3, 4, expr.BoolOr, 5)
	require.NoError(t, err)

	// Removing combinator 3 takes leaves 1 and 2 with it; combinator 5 is
	// left with only child 4, so it collapses and 4 is promoted to a root.
	next, err := merged.RemoveNode(3)
	require.NoError(t, err)

	assert.Equal(t, []expr.ID{4}, next.Roots())
	assert.Equal(t, 1, next.Len())
	checkInvariants(t, next)
}

func TestRemoveNode_PromotionIntoGrandparent(t *testing.T) {
	e := connected(t)
	extra, err := e.AddNode(testutil.Leaf(4, testutil.NumField("orders", "z"), nil, testutil.NumBound(expr.OpEq, "1")), expr.NoID)
	require.NoError(t, err)
	merged, err := extra.ConnectQueries(3, 4, expr.BoolOr, 5)
	require.NoError(t, err)

	// Removing leaf 2 collapses combinator 3; survivor 1 is promoted into
	// the grandparent's child list (appended at the end).
	next, err := merged.RemoveNode(2)
	require.NoError(t, err)

	assert.False(t, next.Has(3))
	assert.Equal(t, []expr.ID{4, 1}, next.Children(5))
	p, _ := next.Parent(1)
	assert.Equal(t, expr.ID(5), p)
	checkInvariants(t, next)
}

func TestRemoveNode_Unknown(t *testing.T) {
	_, err := New().RemoveNode(7)
	assert.Equal(t, ReasonUnknownNode, ReasonOf(err))
}

func TestReparentNode_ToRoot(t *testing.T) {
	e := connected(t)
	extra, err := e.AddNode(testutil.Leaf(4, testutil.NumField("orders", "z"), nil, testutil.NumBound(expr.OpEq, "1")), 3)
	require.NoError(t, err)

	next, err := extra.ReparentNode(4, expr.NoID)
	require.NoError(t, err)

	assert.Equal(t, []expr.ID{3, 4}, next.Roots())
	assert.Equal(t, []expr.ID{1, 2}, next.Children(3))
	checkInvariants(t, next)
}

func TestReparentNode_DetachCollapsesOldParent(t *testing.T) {
	e := connected(t)

	// Pulling leaf 2 out leaves combinator 3 with one child, which
	// collapses; both leaves end up as roots.
	next, err := e.ReparentNode(2, expr.NoID)
	require.NoError(t, err)

	assert.Equal(t, []expr.ID{1, 2}, next.Roots())
	assert.False(t, next.Has(3))
	checkInvariants(t, next)
}

func TestReparentNode_UnderCombinator(t *testing.T) {
	e := connected(t)
	extra, err := e.AddNode(testutil.Leaf(4, testutil.NumField("orders", "z"), nil, testutil.NumBound(expr.OpEq, "1")), expr.NoID)
	require.NoError(t, err)

	next, err := extra.ReparentNode(4, 3)
	require.NoError(t, err)

	assert.Equal(t, []expr.ID{3}, next.Roots())
	assert.Equal(t, []expr.ID{1, 2, 4}, next.Children(3))
	checkInvariants(t, next)
}

func TestReparentNode_RejectsOwnSubtree(t *testing.T) {
	e := connected(t)

	_, err := e.ReparentNode(3, 3)
	assert.Equal(t, ReasonWouldCycle, ReasonOf(err))

	// A leaf is not a valid destination either.
	_, err = e.ReparentNode(2, 1)
	assert.Equal(t, ReasonNotCombinator, ReasonOf(err))
}

func TestReparentNode_SameParentIsNoop(t *testing.T) {
	e := connected(t)

	next, err := e.ReparentNode(2, 3)
	require.NoError(t, err)
	assert.Equal(t, e, next)

	root, err := New().AddNode(leafOne(), expr.NoID)
	require.NoError(t, err)
	same, err := root.ReparentNode(1, expr.NoID)
	require.NoError(t, err)
	assert.Equal(t, root, same)
}

func TestOperationSequencesKeepInvariants(t *testing.T) {
	// A longer scripted editing session; invariants are re-checked after
	// every completed operation.
	e := New()

	step := func(f func() (Expression, error)) {
		t.Helper()
		next, ferr := f()
		require.NoError(t, ferr)
		e = next
		checkInvariants(t, e)
	}

	id := expr.ID(0)
	nextID := func() expr.ID { id++; return id }

	f := testutil.NumField("orders", "amount")
	a, b, c, d := nextID(), nextID(), nextID(), nextID()
	step(func() (Expression, error) {
		return e.AddNode(testutil.Leaf(a, f, nil, testutil.NumBound(expr.OpLt, "10")), expr.NoID)
	})
	step(func() (Expression, error) {
		return e.AddNode(testutil.Leaf(b, f, nil, testutil.NumBound(expr.OpEq, "3")), expr.NoID)
	})
	step(func() (Expression, error) {
		return e.AddNode(testutil.Leaf(c, f, testutil.NumBound(expr.OpLte, "1"), nil), expr.NoID)
	})
	step(func() (Expression, error) {
		return e.AddNode(testutil.Leaf(d, f, nil, testutil.NumBound(expr.OpNeq, "0")), expr.NoID)
	})

	ab := nextID()
	step(func() (Expression, error) { return e.ConnectQueries(a, b, expr.BoolAnd, ab) })
	cd := nextID()
	step(func() (Expression, error) { return e.ConnectQueries(c, d, expr.BoolOr, cd) })
	all := nextID()
	step(func() (Expression, error) { return e.ConnectQueries(ab, cd, expr.BoolXor, all) })

	step(func() (Expression, error) { return e.ReparentNode(b, cd) })
	step(func() (Expression, error) { return e.RemoveNode(c) })
	step(func() (Expression, error) { return e.RemoveNode(d) })
	step(func() (Expression, error) { return e.ReparentNode(b, expr.NoID) })
	step(func() (Expression, error) { return e.RemoveNode(a) })

	assert.Equal(t, []expr.ID{b}, e.Roots())
}
