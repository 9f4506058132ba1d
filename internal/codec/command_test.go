package codec

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/forest"
	"github.com/siftql/sift/internal/testutil"
)

func TestBuildCommand_SingleLeaf(t *testing.T) {
	// Scenario: one right-bounded leaf renders as a bare EqualityQuery node.
	e, err := forest.New().AddNode(
		testutil.Leaf(1, testutil.NumField("table", "x"), nil, testutil.NumBound(expr.OpEq, "5")), expr.NoID)
	require.NoError(t, err)

	cmd, err := BuildCommand(e)
	require.NoError(t, err)

	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"name":"EqualityQuery","content":{"column":"table.x","operator":"eq","value":"5"}}`,
		string(data))
}

func TestBuildCommand_OperatorDirectionFlip(t *testing.T) {
	// The same lt operator maps to "gt" on the left of the field and "lt"
	// on the right: "3 < x" is semantically "x > 3".
	left, err := forest.New().AddNode(
		testutil.Leaf(1, testutil.NumField("table", "x"), testutil.NumBound(expr.OpLt, "3"), nil), expr.NoID)
	require.NoError(t, err)

	cmd, err := BuildCommand(left)
	require.NoError(t, err)
	assert.Equal(t, "gt", cmd.Content.(LeafContent).Operator)

	right, err := forest.New().AddNode(
		testutil.Leaf(1, testutil.NumField("table", "x"), nil, testutil.NumBound(expr.OpLt, "3")), expr.NoID)
	require.NoError(t, err)

	cmd, err = BuildCommand(right)
	require.NoError(t, err)
	assert.Equal(t, "lt", cmd.Content.(LeafContent).Operator)
}

func TestBuildCommand_TwoSidedLeafDecomposes(t *testing.T) {
	// Scenario: a both-sided range condition renders as an implicit AND
	// wrapping two leaves, though the tree itself has exactly one node.
	e, err := forest.New().AddNode(
		testutil.Leaf(1, testutil.NumField("orders", "x"),
			testutil.NumBound(expr.OpLt, "3"), testutil.NumBound(expr.OpLt, "8")), expr.NoID)
	require.NoError(t, err)
	require.Equal(t, 1, e.Len())

	cmd, err := BuildCommand(e)
	require.NoError(t, err)

	require.Equal(t, "ParentQuery", cmd.Name)
	content := cmd.Content.(CombinatorContent)
	assert.Equal(t, "and", content.Operator)
	require.Len(t, content.Children, 2)
	assert.Equal(t, "gt", content.Children[0].Content.(LeafContent).Operator)
	assert.Equal(t, "lt", content.Children[1].Content.(LeafContent).Operator)

	data, err := json.MarshalIndent(cmd, "", "  ")
	require.NoError(t, err)
	g := goldie.New(t)
	g.Assert(t, "command_two_sided", data)
}

func TestBuildCommand_CombinatorTree(t *testing.T) {
	e := connected(t)

	cmd, err := BuildCommand(e)
	require.NoError(t, err)

	require.Equal(t, "ParentQuery", cmd.Name)
	content := cmd.Content.(CombinatorContent)
	assert.Equal(t, "and", content.Operator)
	require.Len(t, content.Children, 2)

	first := content.Children[0].Content.(LeafContent)
	assert.Equal(t, "orders.x", first.Column)
	assert.Equal(t, "eq", first.Operator)
	assert.Equal(t, "5", first.Value)
}

func TestBuildCommand_SubstringOperators(t *testing.T) {
	e, err := forest.New().AddNode(
		testutil.Leaf(1, testutil.TextField("users", "name"), nil, testutil.TextBound(expr.OpContains, "an")), expr.NoID)
	require.NoError(t, err)

	cmd, err := BuildCommand(e)
	require.NoError(t, err)
	assert.Equal(t, "contains", cmd.Content.(LeafContent).Operator)
}

func TestBuildCommand_Errors(t *testing.T) {
	t.Run("empty expression", func(t *testing.T) {
		_, err := BuildCommand(forest.New())
		assert.ErrorContains(t, err, "0 roots")
	})

	t.Run("multiple roots", func(t *testing.T) {
		e, err := forest.New().AddNode(
			testutil.Leaf(1, testutil.NumField("t", "x"), nil, testutil.NumBound(expr.OpEq, "1")), expr.NoID)
		require.NoError(t, err)
		e, err = e.AddNode(
			testutil.Leaf(2, testutil.NumField("t", "y"), nil, testutil.NumBound(expr.OpEq, "2")), expr.NoID)
		require.NoError(t, err)

		_, err = BuildCommand(e)
		assert.ErrorContains(t, err, "2 roots")
	})

	t.Run("unbounded leaf", func(t *testing.T) {
		e, err := forest.New().AddNode(
			testutil.Leaf(1, testutil.NumField("t", "x"), nil, nil), expr.NoID)
		require.NoError(t, err)

		_, err = BuildCommand(e)
		assert.ErrorContains(t, err, "neither side")
	})

	t.Run("substring operator on the left", func(t *testing.T) {
		e, err := forest.New().AddNode(
			testutil.Leaf(1, testutil.TextField("t", "x"), testutil.TextBound(expr.OpContains, "a"), nil), expr.NoID)
		require.NoError(t, err)

		_, err = BuildCommand(e)
		assert.ErrorContains(t, err, "no left-of-field form")
	})

	t.Run("blank combinator operator", func(t *testing.T) {
		e := forest.FromParts(
			map[expr.ID]expr.Query{
				1: testutil.Leaf(1, testutil.NumField("t", "x"), nil, testutil.NumBound(expr.OpEq, "1")),
				2: testutil.Leaf(2, testutil.NumField("t", "y"), nil, testutil.NumBound(expr.OpEq, "2")),
				3: testutil.Combinator(3, expr.BoolNone),
			},
			[]expr.ID{3},
			map[expr.ID][]expr.ID{3: {1, 2}},
			map[expr.ID]expr.ID{1: 3, 2: 3},
		)

		_, err := BuildCommand(e)
		assert.ErrorContains(t, err, "no operator")
	})
}
