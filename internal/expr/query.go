package expr

// Query represents a node of a filter expression.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the engine and the codecs.
//
// Query types:
//   - EqualityQuery: a leaf comparison condition on a single field
//   - ParentQuery: a boolean combinator over children held by the forest
type Query interface {
	queryNode() // Marker method - seals interface to this package

	// NodeID returns the node's generator-issued identifier.
	NodeID() ID
}

// Bound is one side of a leaf condition: an operator paired with a value.
// Representing the pair as a single struct makes "operator and value are both
// present or both absent" hold by construction.
type Bound struct {
	Op    ComparisonOp
	Value Value
}

// EqualityQuery is a leaf condition on one field, optionally bounded on the
// left ("3 < x") and/or the right ("x < 8") side.
//
// A leaf with neither side set is a transient editing state. It is
// constructible on purpose - validity is checked by forest.Validate, not at
// construction time.
type EqualityQuery struct {
	ID    ID
	Field FieldRef
	Left  *Bound
	Right *Bound
}

func (EqualityQuery) queryNode() {}

// NodeID implements Query.
func (q EqualityQuery) NodeID() ID { return q.ID }

// Bounded reports whether at least one side of the condition is set.
func (q EqualityQuery) Bounded() bool {
	return q.Left != nil || q.Right != nil
}

// ParentQuery is an internal combinator node. It carries no child data of its
// own: children are represented externally by the forest's adjacency maps, so
// nodes never hold back-references and the structure stays cycle-safe.
type ParentQuery struct {
	ID ID
	Op BoolOp
}

func (ParentQuery) queryNode() {}

// NodeID implements Query.
func (q ParentQuery) NodeID() ID { return q.ID }
