// Package testutil provides shorthands for building expected ASTs and
// deterministic identifiers in tests.
package testutil

import "github.com/roach88/streamql/internal/ir"

// Col is an unqualified column expression.
func Col(name string) ir.Expr { return ir.Column{Ref: ir.ColumnRef{Name: name}} }

// QCol is a qualified column expression.
func QCol(qualifier, name string) ir.Expr {
	return ir.Column{Ref: ir.ColumnRef{Qualifier: qualifier, Name: name}}
}

// Ref is a column reference; "a.b" splits into qualifier and name.
func Ref(s string) ir.ColumnRef {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return ir.ColumnRef{Qualifier: s[:i], Name: s[i+1:]}
		}
	}
	return ir.ColumnRef{Name: s}
}

// Int is an integer literal expression.
func Int(i int64) ir.Expr { return ir.Literal{Value: ir.Int(i)} }

// Dec is a decimal literal expression.
func Dec(s string) ir.Expr { return ir.Literal{Value: ir.MustDecimal(s)} }

// Str is a string literal expression.
func Str(s string) ir.Expr { return ir.Literal{Value: ir.String(s)} }

// Bin is a binary arithmetic expression.
func Bin(l ir.Expr, op ir.ArithOp, r ir.Expr) ir.Expr {
	return ir.Binary{Left: l, Op: op, Right: r}
}

// Agg is an aggregate over a column; column "*" means count(*).
func Agg(fn ir.AggFunc, column string) ir.Expr {
	if column == "*" {
		return ir.Aggregate{Func: fn, Star: true}
	}
	return ir.Aggregate{Func: fn, Column: Ref(column)}
}

// Cmp is a comparison.
func Cmp(l ir.Expr, op ir.CompareOp, r ir.Expr) ir.BoolExpr {
	return ir.Comparison{Left: l, Op: op, Right: r}
}

// And joins two conditions with and.
func And(l, r ir.BoolExpr) ir.BoolExpr { return ir.Logical{Left: l, Op: ir.OpAnd, Right: r} }

// Or joins two conditions with or.
func Or(l, r ir.BoolExpr) ir.BoolExpr { return ir.Logical{Left: l, Op: ir.OpOr, Right: r} }

// Scan is a scan of a named stream.
func Scan(stream, alias string) ir.Scan {
	return ir.Scan{Source: ir.ScanSource{Stream: stream, Alias: alias}}
}

// Items builds a projection of unaliased expressions.
func Items(exprs ...ir.Expr) ir.Projection {
	p := ir.Projection{}
	for _, e := range exprs {
		p.Items = append(p.Items, ir.ProjectionItem{Expr: e})
	}
	return p
}

// Star is "select * from stream".
func Star(stream string) *ir.Query {
	return &ir.Query{Scan: Scan(stream, ""), Projection: ir.Projection{Star: true}}
}

// Offset returns a pointer to n for LimitSpec.Offset.
func Offset(n int64) *int64 { return &n }
