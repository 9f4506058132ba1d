package codec

import (
	"fmt"

	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/forest"
)

// CommandNode is one node of the submission command tree sent to the remote
// query executor as part of its load-columns envelope.
type CommandNode struct {
	Name    string `json:"name"`
	Content any    `json:"content"`
}

// LeafContent is the payload of an EqualityQuery command node. Values are
// always serialized as strings.
type LeafContent struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// CombinatorContent is the payload of a ParentQuery command node.
type CombinatorContent struct {
	Operator string         `json:"operator"`
	Children []*CommandNode `json:"children"`
}

// BuildCommand renders the expression into the submission command tree.
//
// The expression must be fully connected into a single tree: exactly one
// root. Callers are expected to have checked that already (and validated the
// expression); the precondition is still verified here so a violation fails
// loudly instead of submitting half a filter.
//
// A two-sided leaf renders as an implicit AND combinator wrapping one command
// leaf per side - a normalization performed only at serialization time, never
// reflected in the tree's own node count.
func BuildCommand(e forest.Expression) (*CommandNode, error) {
	root, ok := e.Root()
	if !ok {
		return nil, fmt.Errorf("build command: expression has %d roots, need exactly 1", len(e.Roots()))
	}
	return renderCommand(e, root, map[expr.ID]struct{}{})
}

// renderCommand walks the tree. seen guards against cyclic structures
// loaded from untrusted documents; a valid expression never trips it.
func renderCommand(e forest.Expression, id expr.ID, seen map[expr.ID]struct{}) (*CommandNode, error) {
	if _, dup := seen[id]; dup {
		return nil, fmt.Errorf("build command: expression contains a cycle at node %s", id)
	}
	seen[id] = struct{}{}

	node, ok := e.Node(id)
	if !ok {
		return nil, fmt.Errorf("build command: dangling reference to node %s", id)
	}

	switch q := node.(type) {
	case expr.EqualityQuery:
		return renderLeaf(q)
	case expr.ParentQuery:
		return renderCombinator(e, q, seen)
	}
	panic(fmt.Sprintf("unknown query variant %T", node))
}

func renderLeaf(q expr.EqualityQuery) (*CommandNode, error) {
	var sides []*CommandNode

	if q.Left != nil {
		wire, ok := q.Left.Op.LeftWireName()
		if !ok {
			return nil, fmt.Errorf("build command: leaf %s: operator %q has no left-of-field form", q.ID, q.Left.Op)
		}
		sides = append(sides, &CommandNode{
			Name: typeEquality,
			Content: LeafContent{
				Column:   q.Field.Wire(),
				Operator: wire,
				Value:    q.Left.Value.Wire(),
			},
		})
	}
	if q.Right != nil {
		wire := q.Right.Op.RightWireName()
		if wire == "" {
			return nil, fmt.Errorf("build command: leaf %s: blank comparison operator", q.ID)
		}
		sides = append(sides, &CommandNode{
			Name: typeEquality,
			Content: LeafContent{
				Column:   q.Field.Wire(),
				Operator: wire,
				Value:    q.Right.Value.Wire(),
			},
		})
	}

	switch len(sides) {
	case 0:
		return nil, fmt.Errorf("build command: leaf %s has neither side set", q.ID)
	case 1:
		return sides[0], nil
	default:
		// Two-sided range condition: implicit AND decomposition.
		return &CommandNode{
			Name: typeParent,
			Content: CombinatorContent{
				Operator: expr.BoolAnd.WireName(),
				Children: sides,
			},
		}, nil
	}
}

func renderCombinator(e forest.Expression, q expr.ParentQuery, seen map[expr.ID]struct{}) (*CommandNode, error) {
	if !q.Op.Valid() || q.Op == expr.BoolNone {
		return nil, fmt.Errorf("build command: combinator %s has no operator", q.ID)
	}

	kids := e.Children(q.ID)
	children := make([]*CommandNode, 0, len(kids))
	for _, c := range kids {
		rendered, err := renderCommand(e, c, seen)
		if err != nil {
			return nil, err
		}
		children = append(children, rendered)
	}

	return &CommandNode{
		Name: typeParent,
		Content: CombinatorContent{
			Operator: q.Op.WireName(),
			Children: children,
		},
	}, nil
}
