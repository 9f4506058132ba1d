// Package sqlgen compiles a single-rooted filter expression into a
// parameterized SQL WHERE fragment. Values are never interpolated into
// the SQL text; every literal becomes a placeholder argument.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/forest"
)

// Fragment is a compiled WHERE clause with its placeholder arguments.
type Fragment struct {
	SQL  string
	Args []any
}

// Compile renders the expression's single root as a WHERE fragment.
// The expression must have exactly one root and every leaf must carry
// at least one bound.
func Compile(e forest.Expression) (Fragment, error) {
	root, ok := e.Root()
	if !ok {
		return Fragment{}, fmt.Errorf("expression must have exactly one root, has %d", len(e.Roots()))
	}
	sqlizer, err := compileNode(e, root, map[expr.ID]struct{}{})
	if err != nil {
		return Fragment{}, err
	}
	sql, args, err := sqlizer.ToSql()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{SQL: sql, Args: args}, nil
}

// SelectSQL wraps the compiled fragment in a complete SELECT against
// one table, for previewing what a filter would fetch.
func SelectSQL(e forest.Expression, table string) (string, []any, error) {
	root, ok := e.Root()
	if !ok {
		return "", nil, fmt.Errorf("expression must have exactly one root, has %d", len(e.Roots()))
	}
	where, err := compileNode(e, root, map[expr.ID]struct{}{})
	if err != nil {
		return "", nil, err
	}
	return sq.Select("*").From(table).Where(where).OrderBy("id ASC").ToSql()
}

// compileNode walks the tree. seen guards against cyclic structures
// loaded from untrusted documents; a valid expression never trips it.
func compileNode(e forest.Expression, id expr.ID, seen map[expr.ID]struct{}) (sq.Sqlizer, error) {
	if _, dup := seen[id]; dup {
		return nil, fmt.Errorf("node %s: expression contains a cycle", id)
	}
	seen[id] = struct{}{}

	node, ok := e.Node(id)
	if !ok {
		return nil, fmt.Errorf("node %s not found", id)
	}
	switch n := node.(type) {
	case expr.EqualityQuery:
		return compileLeaf(n)
	case expr.ParentQuery:
		return compileCombinator(e, n, seen)
	default:
		return nil, fmt.Errorf("node %s: unsupported variant %T", id, node)
	}
}

// compileLeaf renders a leaf's bounds. A left bound places the value
// before the field, so its ordering operators flip: value < field is
// field > value.
func compileLeaf(leaf expr.EqualityQuery) (sq.Sqlizer, error) {
	if !leaf.Bounded() {
		return nil, fmt.Errorf("leaf %s has no bounds", leaf.ID)
	}
	var sides []sq.Sqlizer
	if leaf.Left != nil {
		side, err := compileBound(leaf.Field, leaf.Left, true)
		if err != nil {
			return nil, fmt.Errorf("leaf %s: %w", leaf.ID, err)
		}
		sides = append(sides, side)
	}
	if leaf.Right != nil {
		side, err := compileBound(leaf.Field, leaf.Right, false)
		if err != nil {
			return nil, fmt.Errorf("leaf %s: %w", leaf.ID, err)
		}
		sides = append(sides, side)
	}
	if len(sides) == 1 {
		return sides[0], nil
	}
	return sq.And(sides), nil
}

func compileBound(field expr.FieldRef, bound *expr.Bound, left bool) (sq.Sqlizer, error) {
	column := field.Wire()
	arg, err := valueArg(bound.Value)
	if err != nil {
		return nil, err
	}
	op := bound.Op
	if left {
		// Mirror the ordering operators for the value-first reading.
		switch op {
		case expr.OpLt:
			return sq.Gt{column: arg}, nil
		case expr.OpLte:
			return sq.GtOrEq{column: arg}, nil
		case expr.OpStartsWith, expr.OpEndsWith, expr.OpContains:
			return nil, fmt.Errorf("operator %q has no left-of-field form", op)
		}
	}
	switch op {
	case expr.OpEq:
		return sq.Eq{column: arg}, nil
	case expr.OpNeq:
		return sq.NotEq{column: arg}, nil
	case expr.OpLt:
		return sq.Lt{column: arg}, nil
	case expr.OpLte:
		return sq.LtOrEq{column: arg}, nil
	case expr.OpStartsWith:
		return likeExpr(column, escapeLike(bound.Value.Wire())+"%"), nil
	case expr.OpEndsWith:
		return likeExpr(column, "%"+escapeLike(bound.Value.Wire())), nil
	case expr.OpContains:
		return likeExpr(column, "%"+escapeLike(bound.Value.Wire())+"%"), nil
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}
}

func compileCombinator(e forest.Expression, parent expr.ParentQuery, seen map[expr.ID]struct{}) (sq.Sqlizer, error) {
	children := e.Children(parent.ID)
	if len(children) == 0 {
		return nil, fmt.Errorf("combinator %s has no children", parent.ID)
	}
	parts := make([]sq.Sqlizer, 0, len(children))
	for _, child := range children {
		part, err := compileNode(e, child, seen)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	switch parent.Op {
	case expr.BoolAnd:
		return sq.And(parts), nil
	case expr.BoolOr:
		return sq.Or(parts), nil
	case expr.BoolNot:
		return notExpr{inner: sq.And(parts)}, nil
	case expr.BoolXor:
		folded := parts[0]
		for _, part := range parts[1:] {
			folded = xorExpr{a: folded, b: part}
		}
		return folded, nil
	default:
		return nil, fmt.Errorf("combinator %s has unknown operator %q", parent.ID, parent.Op)
	}
}

// notExpr negates its inner predicate.
type notExpr struct {
	inner sq.Sqlizer
}

func (n notExpr) ToSql() (string, []any, error) {
	sql, args, err := n.inner.ToSql()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("NOT %s", parenthesize(sql)), args, nil
}

// xorExpr renders exclusive-or as inequality of the two boolean
// results, which SQLite evaluates over 0/1 truth values.
type xorExpr struct {
	a, b sq.Sqlizer
}

func (x xorExpr) ToSql() (string, []any, error) {
	asql, aargs, err := x.a.ToSql()
	if err != nil {
		return "", nil, err
	}
	bsql, bargs, err := x.b.ToSql()
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("(%s <> %s)", parenthesize(asql), parenthesize(bsql))
	return sql, append(aargs, bargs...), nil
}

func parenthesize(sql string) string {
	if strings.HasPrefix(sql, "(") && strings.HasSuffix(sql, ")") {
		return sql
	}
	return "(" + sql + ")"
}

func likeExpr(column, pattern string) sq.Sqlizer {
	return sq.Expr(column+` LIKE ? ESCAPE '\'`, pattern)
}

// escapeLike neutralizes LIKE metacharacters in a literal so user
// values match verbatim.
func escapeLike(literal string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(literal)
}

// valueArg converts a typed value into a driver-friendly argument.
// Numbers bind numerically so comparisons use numeric ordering.
func valueArg(v expr.Value) (any, error) {
	switch val := v.(type) {
	case expr.NumberValue:
		lit := string(val)
		if !strings.Contains(lit, ".") {
			n, err := strconv.ParseInt(lit, 10, 64)
			if err == nil {
				return n, nil
			}
		}
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, fmt.Errorf("number literal %q: %w", lit, err)
		}
		return f, nil
	case expr.TextValue:
		return string(val), nil
	case expr.DateValue:
		return string(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
