// Package testutil provides compact builders for filter-expression test
// fixtures. Kept free of engine imports so every internal package can use it.
package testutil

import "github.com/siftql/sift/internal/expr"

// NumField returns a number-typed field reference.
func NumField(table, column string) expr.FieldRef {
	return expr.FieldRef{Table: table, Column: column, Kind: expr.KindNumber}
}

// TextField returns a text-typed field reference.
func TextField(table, column string) expr.FieldRef {
	return expr.FieldRef{Table: table, Column: column, Kind: expr.KindText}
}

// DateField returns a date-typed field reference.
func DateField(table, column string) expr.FieldRef {
	return expr.FieldRef{Table: table, Column: column, Kind: expr.KindDate}
}

// NumBound returns a bound with a validated decimal literal.
// Panics on an invalid literal - fixtures are hardcoded.
func NumBound(op expr.ComparisonOp, lit string) *expr.Bound {
	v, err := expr.NewNumberValue(lit)
	if err != nil {
		panic(err)
	}
	return &expr.Bound{Op: op, Value: v}
}

// TextBound returns a bound holding a text value.
func TextBound(op expr.ComparisonOp, lit string) *expr.Bound {
	return &expr.Bound{Op: op, Value: expr.TextValue(lit)}
}

// DateBound returns a bound with a validated calendar date.
// Panics on an invalid literal - fixtures are hardcoded.
func DateBound(op expr.ComparisonOp, lit string) *expr.Bound {
	v, err := expr.NewDateValue(lit)
	if err != nil {
		panic(err)
	}
	return &expr.Bound{Op: op, Value: v}
}

// Leaf returns an EqualityQuery with the given sides. Either side may be nil.
func Leaf(id expr.ID, field expr.FieldRef, left, right *expr.Bound) expr.EqualityQuery {
	return expr.EqualityQuery{ID: id, Field: field, Left: left, Right: right}
}

// Combinator returns a ParentQuery node.
func Combinator(id expr.ID, op expr.BoolOp) expr.ParentQuery {
	return expr.ParentQuery{ID: id, Op: op}
}
