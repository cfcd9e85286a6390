// Package querysql renders the common AST back into SQL-like text.
//
// The output is the canonical surface form of a query: compiling it with
// the sql dialect yields the same AST, whichever dialect the query was
// first written in. Clauses appear in canonical order, defaults are left
// out (asc, inner), and parentheses are added only where the left-to-right
// grouping of arithmetic and boolean chains requires them.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/streamql/internal/ir"
)

// Renderer prints queries as SQL-like text.
type Renderer struct {
	// Upper prints keywords and function names in upper case.
	Upper bool
	// Pretty starts each clause on its own line, indenting nested queries.
	Pretty bool
}

// Render prints q with the default style: lower-case keywords on one line.
func Render(q *ir.Query) (string, error) {
	return Renderer{}.Render(q)
}

// Render prints q.
func (r Renderer) Render(q *ir.Query) (string, error) {
	var b strings.Builder
	if err := r.query(&b, q, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Expr prints a single expression.
func (r Renderer) Expr(e ir.Expr) (string, error) {
	var b strings.Builder
	err := r.expr(&b, e, 0)
	return b.String(), err
}

// Cond prints a single condition.
func (r Renderer) Cond(c ir.BoolExpr) (string, error) {
	var b strings.Builder
	err := r.cond(&b, c, 0)
	return b.String(), err
}

func (r Renderer) kw(s string) string {
	if r.Upper {
		return strings.ToUpper(s)
	}
	return s
}

// clause writes the separator before a clause at nesting depth.
func (r Renderer) clause(b *strings.Builder, depth int) {
	if !r.Pretty {
		b.WriteByte(' ')
		return
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("  ", depth))
}

func (r Renderer) query(b *strings.Builder, q *ir.Query, depth int) error {
	if q == nil {
		return fmt.Errorf("cannot render nil query")
	}

	b.WriteString(r.kw("select"))
	if q.Projection.Distinct {
		b.WriteString(" " + r.kw("distinct"))
	}
	b.WriteByte(' ')
	if err := r.projection(b, q.Projection, depth); err != nil {
		return fmt.Errorf("render projection: %w", err)
	}

	r.clause(b, depth)
	b.WriteString(r.kw("from") + " ")
	if err := r.source(b, q.Scan.Source, depth); err != nil {
		return fmt.Errorf("render source: %w", err)
	}
	for i, j := range q.Scan.Joins {
		r.clause(b, depth)
		if err := r.join(b, j, depth); err != nil {
			return fmt.Errorf("render join %d: %w", i, err)
		}
	}

	if q.Filter != nil {
		r.clause(b, depth)
		b.WriteString(r.kw("where") + " ")
		if err := r.cond(b, q.Filter, depth); err != nil {
			return fmt.Errorf("render filter: %w", err)
		}
	}

	if g := q.Group; g != nil {
		r.clause(b, depth)
		b.WriteString(r.kw("group by") + " ")
		b.WriteString(columns(g.Keys))
		if g.Having != nil {
			r.clause(b, depth)
			b.WriteString(r.kw("having") + " ")
			if err := r.cond(b, g.Having, depth); err != nil {
				return fmt.Errorf("render having: %w", err)
			}
		}
	}

	if len(q.Order) > 0 {
		r.clause(b, depth)
		b.WriteString(r.kw("order by") + " ")
		for i, o := range q.Order {
			if i > 0 {
				b.WriteString(", ")
			}
			r.orderItem(b, o)
		}
	}

	if l := q.Limit; l != nil {
		r.clause(b, depth)
		b.WriteString(r.kw("limit") + " " + strconv.FormatInt(l.Limit, 10))
		if l.Offset != nil {
			b.WriteString(" " + r.kw("offset") + " " + strconv.FormatInt(*l.Offset, 10))
		}
	}
	return nil
}

func (r Renderer) projection(b *strings.Builder, p ir.Projection, depth int) error {
	if p.Star {
		b.WriteByte('*')
		return nil
	}
	if len(p.Items) == 0 {
		return fmt.Errorf("projection has no items")
	}
	for i, it := range p.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := r.expr(b, it.Expr, depth); err != nil {
			return err
		}
		if it.Alias != "" {
			b.WriteString(" " + r.kw("as") + " " + it.Alias)
		}
	}
	return nil
}

func (r Renderer) source(b *strings.Builder, s ir.ScanSource, depth int) error {
	switch {
	case s.Subquery != nil:
		if err := r.subquery(b, s.Subquery, depth); err != nil {
			return err
		}
	case s.Stream != "":
		b.WriteString(s.Stream)
	default:
		return fmt.Errorf("source has neither stream nor subquery")
	}
	if s.Alias != "" {
		b.WriteString(" " + r.kw("as") + " " + s.Alias)
	}
	return nil
}

func (r Renderer) join(b *strings.Builder, j ir.JoinSpec, depth int) error {
	switch j.Kind {
	case ir.JoinInner:
	case ir.JoinLeft, ir.JoinOuter:
		b.WriteString(r.kw(string(j.Kind)) + " ")
	default:
		return fmt.Errorf("unsupported join kind: %q", j.Kind)
	}
	b.WriteString(r.kw("join") + " ")
	if err := r.source(b, j.Source, depth); err != nil {
		return err
	}
	if len(j.On) == 0 {
		return fmt.Errorf("join has no predicates")
	}
	b.WriteString(" " + r.kw("on") + " ")
	for i, p := range j.On {
		if i > 0 {
			b.WriteString(" " + r.kw("and") + " ")
		}
		b.WriteString(p.Left.String() + " = " + p.Right.String())
	}
	return nil
}

func (r Renderer) orderItem(b *strings.Builder, o ir.OrderItem) {
	b.WriteString(o.Column.String())
	if o.Direction == ir.Desc {
		b.WriteString(" " + r.kw("desc"))
	}
	if o.Nulls != ir.NullsUnspecified {
		b.WriteString(" " + r.kw("nulls") + " " + r.kw(string(o.Nulls)))
	}
}

func (r Renderer) subquery(b *strings.Builder, q *ir.Query, depth int) error {
	b.WriteByte('(')
	if r.Pretty {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth+1))
	}
	if err := r.query(b, q, depth+1); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

func (r Renderer) expr(b *strings.Builder, e ir.Expr, depth int) error {
	switch e := e.(type) {
	case ir.Column:
		b.WriteString(e.Ref.String())
	case ir.Literal:
		s, err := r.value(e.Value)
		if err != nil {
			return err
		}
		b.WriteString(s)
	case ir.Aggregate:
		b.WriteString(r.kw(string(e.Func)) + "(")
		if e.Star {
			b.WriteByte('*')
		} else {
			b.WriteString(e.Column.String())
		}
		b.WriteByte(')')
	case ir.Subquery:
		return r.subquery(b, e.Query, depth)
	case ir.Binary:
		if err := r.expr(b, e.Left, depth); err != nil {
			return err
		}
		b.WriteString(" " + string(e.Op) + " ")
		// Chains fold to the left, so only a nested right operand needs
		// parentheses to keep its grouping.
		_, nested := e.Right.(ir.Binary)
		if nested {
			b.WriteByte('(')
		}
		if err := r.expr(b, e.Right, depth); err != nil {
			return err
		}
		if nested {
			b.WriteByte(')')
		}
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func (r Renderer) value(v ir.Value) (string, error) {
	switch v := v.(type) {
	case ir.Int:
		return strconv.FormatInt(int64(v), 10), nil
	case ir.Decimal:
		// Keep at least one fractional digit so the literal reads back as
		// a decimal, not an integer.
		return v.D.StringFixed(max(-v.D.Exponent(), 1)), nil
	case ir.String:
		return "'" + string(v) + "'", nil
	case ir.Bool:
		return r.kw(strconv.FormatBool(bool(v))), nil
	}
	return "", fmt.Errorf("unsupported value type: %T", v)
}

func (r Renderer) cond(b *strings.Builder, c ir.BoolExpr, depth int) error {
	switch c := c.(type) {
	case ir.Comparison:
		if err := r.expr(b, c.Left, depth); err != nil {
			return err
		}
		b.WriteString(" " + string(c.Op) + " ")
		return r.expr(b, c.Right, depth)
	case ir.NullCheck:
		if err := r.expr(b, c.Expr, depth); err != nil {
			return err
		}
		if c.Negated {
			b.WriteString(" " + r.kw("is not null"))
		} else {
			b.WriteString(" " + r.kw("is null"))
		}
	case ir.Exists:
		if c.Negated {
			b.WriteString(r.kw("not") + " ")
		}
		b.WriteString(r.kw("exists") + " ")
		return r.subquery(b, c.Query, depth)
	case ir.In:
		if err := r.expr(b, c.Expr, depth); err != nil {
			return err
		}
		if c.Negated {
			b.WriteString(" " + r.kw("not"))
		}
		b.WriteString(" " + r.kw("in") + " ")
		return r.subquery(b, c.Query, depth)
	case ir.BoolLiteral:
		b.WriteString(r.kw(strconv.FormatBool(c.Value)))
	case ir.Logical:
		if err := r.cond(b, c.Left, depth); err != nil {
			return err
		}
		b.WriteString(" " + r.kw(string(c.Op)) + " ")
		_, nested := c.Right.(ir.Logical)
		if nested {
			b.WriteByte('(')
		}
		if err := r.cond(b, c.Right, depth); err != nil {
			return err
		}
		if nested {
			b.WriteByte(')')
		}
	default:
		return fmt.Errorf("unsupported condition type: %T", c)
	}
	return nil
}

func columns(cs []ir.ColumnRef) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
