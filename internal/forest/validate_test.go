package forest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/testutil"
)

func TestIsValid_EmptyAndEdited(t *testing.T) {
	assert.True(t, New().IsValid())
	assert.True(t, connected(t).IsValid(), "any forest produced through public operations is valid")
}

func TestValidate_CycleRejected(t *testing.T) {
	// A back-reference can only be assembled manually: combinators 1 and 2
	// each list the other as their child.
	e := FromParts(
		map[expr.ID]expr.Query{
			1: testutil.Combinator(1, expr.BoolAnd),
			2: testutil.Combinator(2, expr.BoolOr),
		},
		[]expr.ID{1},
		map[expr.ID][]expr.ID{
			1: {2},
			2: {1},
		},
		map[expr.ID]expr.ID{2: 1, 1: 2},
	)

	res := e.Validate()
	assert.False(t, res.Valid)

	var cycle *Problem
	for i := range res.Problems {
		if res.Problems[i].Code == ProblemCycle {
			cycle = &res.Problems[i]
		}
	}
	require.NotNil(t, cycle, "expected a cycle problem, got %v", res.Problems)
	assert.Equal(t, []string{"1", "2", "1"}, cycle.Path)
}

func TestValidate_DanglingChild(t *testing.T) {
	e := FromParts(
		map[expr.ID]expr.Query{
			1: testutil.Combinator(1, expr.BoolAnd),
			2: leafOne(),
		},
		[]expr.ID{1},
		map[expr.ID][]expr.ID{1: {2, 99}},
		map[expr.ID]expr.ID{2: 1},
	)

	res := e.Validate()
	assert.False(t, res.Valid)
	assert.Contains(t, codes(res), ProblemDangling)
}

func TestValidate_UnreachableNode(t *testing.T) {
	// Leaf 2 exists but is neither a root nor anyone's child.
	e := FromParts(
		map[expr.ID]expr.Query{
			1: leafOne(),
			2: leafTwo(),
		},
		[]expr.ID{1},
		nil,
		map[expr.ID]expr.ID{2: 1},
	)

	res := e.Validate()
	assert.False(t, res.Valid)
	assert.Contains(t, codes(res), ProblemUnreachable)
}

func TestValidate_RootMismatch(t *testing.T) {
	e := FromParts(
		map[expr.ID]expr.Query{1: leafOne()},
		nil, // parentless node missing from the root set
		nil,
		nil,
	)

	res := e.Validate()
	assert.False(t, res.Valid)
	assert.Contains(t, codes(res), ProblemBadRoot)
}

func TestValidate_LeafWithChildren(t *testing.T) {
	e := FromParts(
		map[expr.ID]expr.Query{
			1: leafOne(),
			2: leafTwo(),
		},
		[]expr.ID{1},
		map[expr.ID][]expr.ID{1: {2}},
		map[expr.ID]expr.ID{2: 1},
	)

	res := e.Validate()
	assert.False(t, res.Valid)
	assert.Contains(t, codes(res), ProblemLeafChild)
}

func TestValidate_AdvisoryFindings(t *testing.T) {
	// An unbounded leaf is a legal transient state: flagged, still valid.
	unbounded := testutil.Leaf(1, testutil.NumField("orders", "x"), nil, nil)
	e, err := New().AddNode(unbounded, expr.NoID)
	require.NoError(t, err)

	res := e.Validate()
	assert.True(t, res.Valid)
	assert.Contains(t, codes(res), ProblemUnboundedLeaf)

	for _, p := range res.Problems {
		assert.True(t, p.Advisory)
	}
}

func TestCollapseFixupDoesNotCascade(t *testing.T) {
	// Deliberate depth choice: the fix-up walks exactly one parent level.
	// Build (by hand) combinator 5 holding [4, 3] where 3 holds only leaf 2
	// - a transient single-child state. Detaching 2 deletes 3 outright,
	// leaving 5 with a single child, and the fix-up must NOT re-check 5.
	e := FromParts(
		map[expr.ID]expr.Query{
			2: leafTwo(),
			3: testutil.Combinator(3, expr.BoolAnd),
			4: leafOne(),
			5: testutil.Combinator(5, expr.BoolOr),
		},
		[]expr.ID{5},
		map[expr.ID][]expr.ID{
			5: {4, 3},
			3: {2},
		},
		map[expr.ID]expr.ID{4: 5, 3: 5, 2: 3},
	)

	next, err := e.ReparentNode(2, expr.NoID)
	require.NoError(t, err)

	assert.False(t, next.Has(3), "emptied combinator is deleted")
	assert.True(t, next.Has(5), "grandparent survives the one-level fix-up")
	assert.Equal(t, []expr.ID{4}, next.Children(5), "no cascading collapse of the grandparent")

	res := next.Validate()
	assert.True(t, res.Valid)
	assert.Contains(t, codes(res), ProblemThinCombinator)
}

func codes(res ValidationResult) []string {
	out := make([]string, 0, len(res.Problems))
	for _, p := range res.Problems {
		out = append(out, p.Code)
	}
	return out
}
