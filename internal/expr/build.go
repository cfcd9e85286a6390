package expr

import (
	"errors"
	"strconv"
	"strings"

	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/peg"
)

// Builder turns expression parse trees into AST nodes. It is shared by the
// dialect transformers so that folding and validation happen in one place.
type Builder struct {
	// Src is the text the tree was parsed from; errors quote it.
	Src string

	// Query builds the query node found inside a subquery.
	Query func(n *peg.Node) (*ir.Query, error)
}

func (b *Builder) structural(n *peg.Node, code, format string, args ...any) error {
	return peg.Structural(b.Src, n, code, format, args...)
}

// Arith folds an arith node left to right into nested Binary nodes.
func (b *Builder) Arith(n *peg.Node) (ir.Expr, error) {
	if n.Rule != RuleArith || len(n.Kids) == 0 {
		return nil, b.structural(n, peg.ErrUnexpectedParseTree, "expected expression, found %s", n.Rule)
	}
	acc, err := b.operand(n.Kids[0])
	if err != nil {
		return nil, err
	}
	for i := 1; i+1 < len(n.Kids); i += 2 {
		rhs, err := b.operand(n.Kids[i+1])
		if err != nil {
			return nil, err
		}
		acc = ir.Binary{Left: acc, Op: ir.ArithOp(n.Kids[i].Text()), Right: rhs}
	}
	return acc, nil
}

func (b *Builder) operand(n *peg.Node) (ir.Expr, error) {
	switch n.Rule {
	case RuleSubquery:
		q, err := b.Subquery(n)
		if err != nil {
			return nil, err
		}
		return ir.Subquery{Query: q}, nil
	case RuleParen:
		return b.Arith(n.Kids[1])
	case RuleAggregate:
		return b.Aggregate(n)
	case RuleValue:
		v, err := b.Value(n)
		if err != nil {
			return nil, err
		}
		return ir.Literal{Value: v}, nil
	case RuleColumn:
		return ir.Column{Ref: b.Column(n)}, nil
	}
	return nil, b.structural(n, peg.ErrUnexpectedParseTree, "unexpected operand %s", n.Rule)
}

// Subquery builds the query wrapped by a subquery node.
func (b *Builder) Subquery(n *peg.Node) (*ir.Query, error) {
	if n.Rule != RuleSubquery || len(n.Kids) != 3 {
		return nil, b.structural(n, peg.ErrUnexpectedParseTree, "expected subquery, found %s", n.Rule)
	}
	return b.Query(n.Kids[1])
}

// Column builds a column reference.
func (b *Builder) Column(n *peg.Node) ir.ColumnRef {
	if len(n.Kids) == 3 {
		return ir.ColumnRef{Qualifier: n.Kids[0].Text(), Name: n.Kids[2].Text()}
	}
	return ir.ColumnRef{Name: n.Kids[0].Text()}
}

// Aggregate builds an aggregate call, rejecting '*' on anything but count.
func (b *Builder) Aggregate(n *peg.Node) (ir.Aggregate, error) {
	fn := ir.AggFunc(strings.ToLower(n.Kids[0].Text()))
	arg := n.Kids[2]
	if arg.Is("*") {
		if fn != ir.AggCount {
			return ir.Aggregate{}, b.structural(n, peg.ErrAggregateStar, "%s does not accept '*'; only count does", fn)
		}
		return ir.Aggregate{Func: fn, Star: true}, nil
	}
	return ir.Aggregate{Func: fn, Column: b.Column(arg)}, nil
}

// Value builds a literal from a value node.
func (b *Builder) Value(n *peg.Node) (ir.Value, error) {
	leaf := n.Kids[0]
	switch {
	case leaf.Is("true"):
		return ir.Bool(true), nil
	case leaf.Is("false"):
		return ir.Bool(false), nil
	case leaf.Tok.Quote != 0:
		return ir.String(leaf.Text()), nil
	}

	text := leaf.Text()
	if strings.Contains(text, ".") {
		d, err := ir.NewDecimal(text)
		if err != nil {
			return nil, b.structural(n, peg.ErrInvalidNumber, "invalid decimal literal")
		}
		return d, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, b.structural(n, peg.ErrIntegerRange, "integer literal out of range")
		}
		return nil, b.structural(n, peg.ErrInvalidNumber, "invalid integer literal")
	}
	return ir.Int(i), nil
}

// Integer builds a non-negative count from an integer leaf, as used by
// limit and offset.
func (b *Builder) Integer(leaf *peg.Node) (int64, error) {
	i, err := strconv.ParseInt(leaf.Text(), 10, 64)
	if err != nil {
		return 0, b.structural(leaf, peg.ErrIntegerRange, "integer literal out of range")
	}
	return i, nil
}

// Bool folds a bool_expr node left to right into nested Logical nodes.
func (b *Builder) Bool(n *peg.Node) (ir.BoolExpr, error) {
	if n.Rule != RuleBoolExpr || len(n.Kids) == 0 {
		return nil, b.structural(n, peg.ErrUnexpectedParseTree, "expected condition, found %s", n.Rule)
	}
	acc, err := b.term(n.Kids[0])
	if err != nil {
		return nil, err
	}
	for i := 1; i+1 < len(n.Kids); i += 2 {
		rhs, err := b.term(n.Kids[i+1])
		if err != nil {
			return nil, err
		}
		op := ir.OpAnd
		if c := n.Kids[i]; c.Is("or") || c.Is("||") {
			op = ir.OpOr
		}
		acc = ir.Logical{Left: acc, Op: op, Right: rhs}
	}
	return acc, nil
}

func (b *Builder) term(n *peg.Node) (ir.BoolExpr, error) {
	switch n.Rule {
	case RuleBoolParen:
		return b.Bool(n.Kids[1])

	case RuleExists:
		q, err := b.Subquery(n.Kids[len(n.Kids)-1])
		if err != nil {
			return nil, err
		}
		return ir.Exists{Query: q, Negated: n.Has("not")}, nil

	case RuleNullCheck:
		e, err := b.Arith(n.Kids[0])
		if err != nil {
			return nil, err
		}
		return ir.NullCheck{Expr: e, Negated: n.Has("not")}, nil

	case RuleIn:
		e, err := b.Arith(n.Kids[0])
		if err != nil {
			return nil, err
		}
		q, err := b.Subquery(n.Kids[len(n.Kids)-1])
		if err != nil {
			return nil, err
		}
		return ir.In{Expr: e, Query: q, Negated: n.Has("not")}, nil

	case RuleCompare:
		l, err := b.Arith(n.Kids[0])
		if err != nil {
			return nil, err
		}
		r, err := b.Arith(n.Kids[2])
		if err != nil {
			return nil, err
		}
		op := ir.CompareOp(n.Kids[1].Text())
		if op == "==" {
			op = ir.OpEq
		}
		return ir.Comparison{Left: l, Op: op, Right: r}, nil

	case RuleBoolean:
		return ir.BoolLiteral{Value: n.Kids[0].Is("true")}, nil
	}
	return nil, b.structural(n, peg.ErrUnexpectedParseTree, "unexpected condition %s", n.Rule)
}

// AliasName returns the alias under n, or "".
func AliasName(n *peg.Node) string {
	a := n.Find(RuleAlias)
	if a == nil {
		return ""
	}
	return a.Kids[len(a.Kids)-1].Text()
}

// SelectItem builds one projection item.
func (b *Builder) SelectItem(n *peg.Node) (ir.ProjectionItem, error) {
	e, err := b.Arith(n.Kids[0])
	if err != nil {
		return ir.ProjectionItem{}, err
	}
	return ir.ProjectionItem{Expr: e, Alias: AliasName(n)}, nil
}

// ColumnOnly returns the column an arith node consists of, or a
// StructuralError with code if it is anything else.
func (b *Builder) ColumnOnly(n *peg.Node, code, what string) (ir.ColumnRef, error) {
	if n.Rule == RuleArith && len(n.Kids) == 1 && n.Kids[0].Rule == RuleColumn {
		return b.Column(n.Kids[0]), nil
	}
	return ir.ColumnRef{}, b.structural(n, code, "%s must be a column", what)
}

// OrderItem builds an order item. Direction defaults to ascending; nulls
// placement stays unspecified unless given.
func (b *Builder) OrderItem(n *peg.Node) (ir.OrderItem, error) {
	col, err := b.ColumnOnly(n.Kids[0], peg.ErrOrderItemNotColumn, "order item")
	if err != nil {
		return ir.OrderItem{}, err
	}
	item := ir.OrderItem{Column: col, Direction: ir.Asc}
	if n.Has("desc") {
		item.Direction = ir.Desc
	}
	if nulls := n.Find(RuleNulls); nulls != nil {
		item.Nulls = ir.NullsLast
		if nulls.Has("first") {
			item.Nulls = ir.NullsFirst
		}
	}
	return item, nil
}
