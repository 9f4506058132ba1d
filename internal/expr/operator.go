package expr

// ComparisonOp is a closed enumeration of leaf comparison operators.
//
// The constant value doubles as the right-of-field wire name. The left-of-field
// wire name differs for ordered comparisons because the relation flips when
// the operator sits left of the field: "3 < x" means "x > 3". The substring
// operators (starts-with, ends-with, contains) have no meaningful left form.
type ComparisonOp string

const (
	OpNone       ComparisonOp = ""
	OpEq         ComparisonOp = "eq"
	OpNeq        ComparisonOp = "neq"
	OpLt         ComparisonOp = "lt"
	OpLte        ComparisonOp = "lte"
	OpStartsWith ComparisonOp = "starts-with"
	OpEndsWith   ComparisonOp = "ends-with"
	OpContains   ComparisonOp = "contains"
)

// ComparisonOps returns every non-blank comparison operator.
func ComparisonOps() []ComparisonOp {
	return []ComparisonOp{OpEq, OpNeq, OpLt, OpLte, OpStartsWith, OpEndsWith, OpContains}
}

// Valid reports whether op is a member of the enumeration. The blank
// operator is valid: it marks an unset bound during interactive editing.
func (op ComparisonOp) Valid() bool {
	switch op {
	case OpNone, OpEq, OpNeq, OpLt, OpLte, OpStartsWith, OpEndsWith, OpContains:
		return true
	}
	return false
}

// Symbol returns the display symbol shown between a value and the field name.
func (op ComparisonOp) Symbol() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "≠"
	case OpLt:
		return "<"
	case OpLte:
		return "≤"
	case OpStartsWith:
		return "^"
	case OpEndsWith:
		return "$"
	case OpContains:
		return "~"
	}
	return ""
}

// RightWireName returns the machine-readable code for the operator when it
// appears right of the field ("x < 3").
func (op ComparisonOp) RightWireName() string {
	return string(op)
}

// LeftWireName returns the machine-readable code for the operator when it
// appears left of the field ("3 < x", semantically "x > 3"), and whether a
// left form exists. Substring operators and the blank operator have none.
func (op ComparisonOp) LeftWireName() (string, bool) {
	switch op {
	case OpEq:
		return "eq", true
	case OpNeq:
		return "neq", true
	case OpLt:
		return "gt", true
	case OpLte:
		return "gte", true
	}
	return "", false
}

// BoolOp is a closed enumeration of boolean combinator operators.
type BoolOp string

const (
	BoolNone BoolOp = ""
	BoolAnd  BoolOp = "and"
	BoolOr   BoolOp = "or"
	BoolXor  BoolOp = "xor"
	BoolNot  BoolOp = "not"
)

// BoolOps returns every non-blank boolean operator.
func BoolOps() []BoolOp {
	return []BoolOp{BoolAnd, BoolOr, BoolXor, BoolNot}
}

// Valid reports whether op is a member of the enumeration.
func (op BoolOp) Valid() bool {
	switch op {
	case BoolNone, BoolAnd, BoolOr, BoolXor, BoolNot:
		return true
	}
	return false
}

// Symbol returns the display symbol for the combinator.
func (op BoolOp) Symbol() string {
	switch op {
	case BoolAnd:
		return "&"
	case BoolOr:
		return "|"
	case BoolXor:
		return "^"
	case BoolNot:
		return "!"
	}
	return ""
}

// WireName returns the machine-readable code for the combinator. Combinators
// are position-insensitive, so a single wire name suffices.
func (op BoolOp) WireName() string {
	return string(op)
}
