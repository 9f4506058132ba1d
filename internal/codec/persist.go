package codec

import (
	"encoding/json"
	"fmt"

	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/forest"
)

// Node type discriminators in the persistence format.
const (
	typeEquality = "EqualityQuery"
	typeParent   = "ParentQuery"
)

// document is the outer persistence shape: the forest's four collections.
type document struct {
	Nodes    map[string]nodeJSON `json:"nodes"`
	Roots    []string            `json:"roots"`
	Children map[string][]string `json:"children"`
	Parents  map[string]string   `json:"parents"`
}

// nodeJSON is the self-describing per-node record. Bound operators and values
// are pointers so that an empty-string value survives the round trip; a
// ParentQuery's children are reconstructed from the outer children map, not
// embedded here.
type nodeJSON struct {
	Type          string         `json:"type"`
	ID            string         `json:"id"`
	Field         *expr.FieldRef `json:"field,omitempty"`
	LeftOperator  *string        `json:"leftOperator,omitempty"`
	LeftValue     *string        `json:"leftValue,omitempty"`
	RightOperator *string        `json:"rightOperator,omitempty"`
	RightValue    *string        `json:"rightValue,omitempty"`
	Operator      *string        `json:"operator,omitempty"`
}

// Marshal serializes an expression to the durable persistence format.
// Output is deterministic: object keys and the root list are sorted.
func Marshal(e forest.Expression) ([]byte, error) {
	return json.Marshal(buildDocument(e))
}

// MarshalIndent is Marshal with two-space indentation, for files meant to be
// read by people (CLI output, golden snapshots).
func MarshalIndent(e forest.Expression) ([]byte, error) {
	return json.MarshalIndent(buildDocument(e), "", "  ")
}

func buildDocument(e forest.Expression) document {
	doc := document{
		Nodes:    map[string]nodeJSON{},
		Roots:    []string{},
		Children: map[string][]string{},
		Parents:  map[string]string{},
	}
	for _, id := range e.Roots() {
		doc.Roots = append(doc.Roots, id.String())
	}
	for _, id := range e.NodeIDs() {
		node, _ := e.Node(id)
		doc.Nodes[id.String()] = encodeNode(node)

		if kids := e.Children(id); len(kids) > 0 {
			ks := make([]string, 0, len(kids))
			for _, c := range kids {
				ks = append(ks, c.String())
			}
			doc.Children[id.String()] = ks
		}
		if p, ok := e.Parent(id); ok {
			doc.Parents[id.String()] = p.String()
		}
	}
	return doc
}

func encodeNode(node expr.Query) nodeJSON {
	switch q := node.(type) {
	case expr.EqualityQuery:
		field := q.Field
		out := nodeJSON{
			Type:  typeEquality,
			ID:    q.ID.String(),
			Field: &field,
		}
		if q.Left != nil {
			op, val := string(q.Left.Op), q.Left.Value.Wire()
			out.LeftOperator, out.LeftValue = &op, &val
		}
		if q.Right != nil {
			op, val := string(q.Right.Op), q.Right.Value.Wire()
			out.RightOperator, out.RightValue = &op, &val
		}
		return out
	case expr.ParentQuery:
		op := string(q.Op)
		return nodeJSON{
			Type:     typeParent,
			ID:       q.ID.String(),
			Operator: &op,
		}
	}
	// Query is sealed; a third variant cannot appear.
	panic(fmt.Sprintf("unknown query variant %T", node))
}

// Unmarshal parses the persistence format back into an expression.
//
// Structure is restored verbatim without validation; run forest.Validate on
// the result before trusting it. The identifier generator must be reseeded
// past the result's MaxID before further edits.
func Unmarshal(data []byte) (forest.Expression, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return forest.Expression{}, fmt.Errorf("unmarshal expression: %w", err)
	}

	nodes := make(map[expr.ID]expr.Query, len(doc.Nodes))
	for key, nj := range doc.Nodes {
		id, err := expr.ParseID(key)
		if err != nil {
			return forest.Expression{}, fmt.Errorf("unmarshal expression: %w", err)
		}
		node, err := decodeNode(id, nj)
		if err != nil {
			return forest.Expression{}, fmt.Errorf("unmarshal expression: node %s: %w", key, err)
		}
		nodes[id] = node
	}

	roots := make([]expr.ID, 0, len(doc.Roots))
	for _, key := range doc.Roots {
		id, err := expr.ParseID(key)
		if err != nil {
			return forest.Expression{}, fmt.Errorf("unmarshal expression: root: %w", err)
		}
		roots = append(roots, id)
	}

	children := make(map[expr.ID][]expr.ID, len(doc.Children))
	for key, kidKeys := range doc.Children {
		id, err := expr.ParseID(key)
		if err != nil {
			return forest.Expression{}, fmt.Errorf("unmarshal expression: children: %w", err)
		}
		kids := make([]expr.ID, 0, len(kidKeys))
		for _, ck := range kidKeys {
			c, err := expr.ParseID(ck)
			if err != nil {
				return forest.Expression{}, fmt.Errorf("unmarshal expression: children of %s: %w", key, err)
			}
			kids = append(kids, c)
		}
		children[id] = kids
	}

	parents := make(map[expr.ID]expr.ID, len(doc.Parents))
	for key, pk := range doc.Parents {
		id, err := expr.ParseID(key)
		if err != nil {
			return forest.Expression{}, fmt.Errorf("unmarshal expression: parents: %w", err)
		}
		p, err := expr.ParseID(pk)
		if err != nil {
			return forest.Expression{}, fmt.Errorf("unmarshal expression: parent of %s: %w", key, err)
		}
		parents[id] = p
	}

	return forest.FromParts(nodes, roots, children, parents), nil
}

func decodeNode(id expr.ID, nj nodeJSON) (expr.Query, error) {
	if nj.ID != "" && nj.ID != id.String() {
		return nil, fmt.Errorf("id %q disagrees with map key", nj.ID)
	}

	switch nj.Type {
	case typeEquality:
		if nj.Field == nil {
			return nil, fmt.Errorf("leaf without field reference")
		}
		q := expr.EqualityQuery{ID: id, Field: *nj.Field}

		var err error
		q.Left, err = decodeBound(*nj.Field, nj.LeftOperator, nj.LeftValue)
		if err != nil {
			return nil, fmt.Errorf("left bound: %w", err)
		}
		q.Right, err = decodeBound(*nj.Field, nj.RightOperator, nj.RightValue)
		if err != nil {
			return nil, fmt.Errorf("right bound: %w", err)
		}
		return q, nil

	case typeParent:
		if nj.Operator == nil {
			return nil, fmt.Errorf("combinator without operator")
		}
		return expr.ParentQuery{ID: id, Op: expr.BoolOp(*nj.Operator)}, nil
	}
	return nil, fmt.Errorf("unknown node type %q", nj.Type)
}

// decodeBound rebuilds one side of a leaf. Operator and value must be both
// present or both absent; the value's variant is decided by the field's
// declared kind - the same resolution that happened at construction.
func decodeBound(field expr.FieldRef, op, val *string) (*expr.Bound, error) {
	if op == nil && val == nil {
		return nil, nil
	}
	if op == nil || val == nil {
		return nil, fmt.Errorf("operator and value must be paired")
	}
	v, err := expr.ParseValue(field.Kind, *val)
	if err != nil {
		return nil, err
	}
	return &expr.Bound{Op: expr.ComparisonOp(*op), Value: v}, nil
}
