package forest

import (
	"errors"
	"fmt"

	"github.com/siftql/sift/internal/expr"
)

// StructuralError reports a structural edit that could not be applied.
//
// There is a single error kind for every structural failure, distinguished by
// a reason code; a missing node and a wrong node kind are conceptually the
// same condition (the operation was handed an id it cannot use).
//
// Structural errors abort the single operation. Because operations return new
// values, the caller still holds the unchanged prior expression and is
// expected to surface the message to the user.
type StructuralError struct {
	// Reason identifies the failure category.
	Reason StructuralReason

	// Op names the operation that failed (e.g. "connectQueries").
	Op string

	// NodeID is the offending node id, when one is involved.
	NodeID expr.ID

	// Message is a human-readable description.
	Message string
}

// StructuralReason categorizes structural errors.
type StructuralReason string

const (
	// ReasonUnknownNode indicates an id with no entry in the expression.
	ReasonUnknownNode StructuralReason = "UNKNOWN_NODE"

	// ReasonNotCombinator indicates a parent id that is not a ParentQuery.
	ReasonNotCombinator StructuralReason = "NOT_COMBINATOR"

	// ReasonDuplicateID indicates an id that is already present.
	ReasonDuplicateID StructuralReason = "DUPLICATE_ID"

	// ReasonSelfConnect indicates a query being connected to itself.
	ReasonSelfConnect StructuralReason = "SELF_CONNECT"

	// ReasonNotRoot indicates a connect input that still has a parent.
	ReasonNotRoot StructuralReason = "NOT_ROOT"

	// ReasonVariantChange indicates an update that would swap a node's variant.
	ReasonVariantChange StructuralReason = "VARIANT_CHANGE"

	// ReasonWouldCycle indicates a reparent into the node's own subtree.
	ReasonWouldCycle StructuralReason = "WOULD_CYCLE"

	// ReasonBadOperator indicates an operator outside its enumeration.
	ReasonBadOperator StructuralReason = "BAD_OPERATOR"
)

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.NodeID != expr.NoID {
		return fmt.Sprintf("%s: %s (op=%s, id=%s)", e.Reason, e.Message, e.Op, e.NodeID)
	}
	return fmt.Sprintf("%s: %s (op=%s)", e.Reason, e.Message, e.Op)
}

// IsStructural reports whether err is a StructuralError.
// Uses errors.As to handle wrapped errors.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// ReasonOf extracts the reason code from a structural error, or "" if err is
// not one.
func ReasonOf(err error) StructuralReason {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}

func errUnknownNode(op string, id expr.ID) *StructuralError {
	return &StructuralError{
		Reason:  ReasonUnknownNode,
		Op:      op,
		NodeID:  id,
		Message: "no node with this id",
	}
}

func errNotCombinator(op string, id expr.ID) *StructuralError {
	return &StructuralError{
		Reason:  ReasonNotCombinator,
		Op:      op,
		NodeID:  id,
		Message: "node is not a combinator",
	}
}

func errDuplicateID(op string, id expr.ID) *StructuralError {
	return &StructuralError{
		Reason:  ReasonDuplicateID,
		Op:      op,
		NodeID:  id,
		Message: "id already present in expression",
	}
}
