// Package catalog describes the tables and columns an expression may
// reference, loaded from CUE definitions. Operator/kind compatibility
// lives here rather than in the engine: the engine stores whatever it
// is given, the catalog decides what a session may build.
package catalog

import (
	"fmt"
	"sort"

	"github.com/siftql/sift/internal/expr"
)

// Column is one filterable column within a table.
type Column struct {
	Name string
	Kind expr.Kind
}

// Table is a named set of columns.
type Table struct {
	Name    string
	Columns map[string]Column
}

// Catalog is the set of tables available to a session.
type Catalog struct {
	Name   string
	Tables map[string]Table
}

// Field resolves table.column into a FieldRef carrying the declared
// value kind. Unknown tables and columns are errors, not empty refs.
func (c *Catalog) Field(table, column string) (expr.FieldRef, error) {
	t, ok := c.Tables[table]
	if !ok {
		return expr.FieldRef{}, &Error{
			Path:    table,
			Message: fmt.Sprintf("unknown table %q", table),
		}
	}
	col, ok := t.Columns[column]
	if !ok {
		return expr.FieldRef{}, &Error{
			Path:    table + "." + column,
			Message: fmt.Sprintf("table %q has no column %q", table, column),
		}
	}
	return expr.FieldRef{Table: table, Column: column, Kind: col.Kind}, nil
}

// TableNames returns the table names in sorted order.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for name := range c.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColumnNames returns the column names of one table in sorted order.
func (c *Catalog) ColumnNames(table string) []string {
	t, ok := c.Tables[table]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllowedOps lists the comparison operators that make sense for a value
// kind. Substring matching is text-only; ordering comparisons apply to
// numbers and dates.
func AllowedOps(kind expr.Kind) []expr.ComparisonOp {
	switch kind {
	case expr.KindText:
		return []expr.ComparisonOp{
			expr.OpEq, expr.OpNeq,
			expr.OpStartsWith, expr.OpEndsWith, expr.OpContains,
		}
	case expr.KindNumber, expr.KindDate:
		return []expr.ComparisonOp{
			expr.OpEq, expr.OpNeq, expr.OpLt, expr.OpLte,
		}
	default:
		return nil
	}
}

// CheckBound verifies that op and literal are usable against field:
// the operator must be allowed for the field's kind and the literal
// must parse as that kind. On success the typed value is returned.
func CheckBound(field expr.FieldRef, op expr.ComparisonOp, literal string) (expr.Value, error) {
	allowed := false
	for _, candidate := range AllowedOps(field.Kind) {
		if candidate == op {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &Error{
			Path:    field.Wire(),
			Message: fmt.Sprintf("operator %q not usable on %s column", op, field.Kind),
		}
	}
	value, err := expr.ParseValue(field.Kind, literal)
	if err != nil {
		return nil, &Error{
			Path:    field.Wire(),
			Message: err.Error(),
		}
	}
	return value, nil
}
