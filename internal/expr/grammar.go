// Package expr holds the expression grammar and semantics shared by every
// dialect.
//
//	arith       := operand (("^" | "+" | "-" | "*" | "/") operand)*
//	operand     := "(" query ")" | "(" arith ")" | aggregate | value | column
//	aggregate   := ("max" | "min" | "avg" | "sum" | "count") &"(" "(" ("*" | column) ")"
//	column      := ident "." ident | ident
//	value       := "true" | "false" | number | string
//	condition   := "not" "exists" "(" query ")" | "exists" "(" query ")"
//	             | arith "is" "not" "null" | arith "is" "null"
//	             | arith "not" "in" "(" query ")" | arith "in" "(" query ")"
//	             | arith cmp arith
//	             | "true" | "false"
//	cmp         := ">=" | "<=" | "!=" | "==" | "<" | ">" | "="
//	bool_expr   := bool_term (("and" | "or") bool_term)*
//	bool_term   := "(" bool_expr ")" | condition
//
// All arithmetic operators share one precedence level, as do "and" and
// "or": chains fold strictly left to right and only parentheses regroup
// them. So "a + b * c" is (a + b) * c and "a or b and c" is (a or b) and c.
//
// "in" and "exists" take a subquery, never a literal list. Aggregate names
// are not reserved; a name is an aggregate only when "(" follows it.
package expr

import (
	"strings"

	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/lexer"
	"github.com/roach88/streamql/internal/peg"
)

// Parse tree rules produced by this package.
const (
	RuleArith      peg.Rule = "arith"
	RuleSubquery   peg.Rule = "subquery"
	RuleParen      peg.Rule = "paren"
	RuleAggregate  peg.Rule = "aggregate"
	RuleValue      peg.Rule = "value"
	RuleColumn     peg.Rule = "column"
	RuleCompare    peg.Rule = "compare"
	RuleNullCheck  peg.Rule = "null_check"
	RuleExists     peg.Rule = "exists"
	RuleIn         peg.Rule = "in"
	RuleBoolean    peg.Rule = "boolean"
	RuleBoolExpr   peg.Rule = "bool_expr"
	RuleBoolParen  peg.Rule = "bool_paren"
	RuleSelectItem peg.Rule = "select_item"
	RuleAlias      peg.Rule = "alias"
	RuleOrderItem  peg.Rule = "order_item"
	RuleNulls      peg.Rule = "nulls"
)

// memo-only rule names; they never appear in a tree.
const (
	memoOperand  peg.Rule = "operand"
	memoBoolTerm peg.Rule = "bool_term"
)

// Reserved lists the words no dialect accepts as an identifier.
var Reserved = map[string]bool{
	"select": true, "from": true, "where": true, "group": true, "by": true,
	"having": true, "order": true, "limit": true, "offset": true, "as": true,
	"in": true, "exists": true, "join": true, "on": true, "and": true,
	"or": true, "not": true, "is": true, "null": true, "inner": true,
	"left": true, "outer": true, "distinct": true, "asc": true, "desc": true,
	"nulls": true, "first": true, "last": true, "true": true, "false": true,
}

// Grammar parses expressions for a host dialect.
type Grammar struct {
	P *peg.Parser

	// Query parses one complete query of the host dialect. It is called
	// after the opening parenthesis of a subquery.
	Query func() *peg.Node

	// SymbolConnectives also accepts "&&" and "||" for and/or.
	SymbolConnectives bool
}

// Arith parses an arithmetic chain.
func (g *Grammar) Arith() *peg.Node {
	p := g.P
	return p.Memo(RuleArith, func() *peg.Node {
		first := g.operand()
		if first == nil {
			return nil
		}
		kids := []*peg.Node{first}
		for {
			m := p.Mark()
			op := p.Choice(p.Sym("^"), p.Sym("+"), p.Sym("-"), p.Sym("*"), p.Sym("/"))
			if op == nil {
				break
			}
			rhs := g.operand()
			if rhs == nil {
				p.Reset(m)
				break
			}
			kids = append(kids, op, rhs)
		}
		return p.Node(RuleArith, kids...)
	})
}

func (g *Grammar) operand() *peg.Node {
	p := g.P
	return p.Memo(memoOperand, func() *peg.Node {
		return p.Nest(func() *peg.Node {
			return p.Choice(
				g.Subquery,
				func() *peg.Node { return p.Seq(RuleParen, p.Sym("("), g.Arith, p.Sym(")")) },
				g.Aggregate,
				g.Value,
				g.Column,
			)
		})
	})
}

// Subquery parses a parenthesized query of the host dialect.
func (g *Grammar) Subquery() *peg.Node {
	p := g.P
	return p.Nest(func() *peg.Node {
		return p.Seq(RuleSubquery, p.Sym("("), g.Query, p.Sym(")"))
	})
}

// IsAggregateName reports whether word names an aggregate function.
func IsAggregateName(word string) bool {
	for _, f := range ir.AggFuncs {
		if strings.EqualFold(word, string(f)) {
			return true
		}
	}
	return false
}

// Aggregate parses an aggregate call. The name must be followed directly by
// "(", so a column that happens to be called count stays a column.
func (g *Grammar) Aggregate() *peg.Node {
	p := g.P
	t := p.Peek()
	if t.Kind != lexer.Word || !IsAggregateName(t.Text) || !p.PeekAt(1).Is("(") {
		p.Fail("aggregate")
		return nil
	}
	return p.Seq(RuleAggregate,
		p.Kw(t.Text),
		p.Sym("("),
		func() *peg.Node { return p.Choice(p.Sym("*"), g.Column) },
		p.Sym(")"),
	)
}

// Value parses a literal.
func (g *Grammar) Value() *peg.Node {
	p := g.P
	n := p.Choice(
		p.Kw("true"),
		p.Kw("false"),
		p.Number,
		func() *peg.Node { return p.String('\'') },
	)
	if n == nil {
		return nil
	}
	return p.Node(RuleValue, n)
}

// Column parses a qualified or plain column reference.
func (g *Grammar) Column() *peg.Node {
	p := g.P
	return p.Choice(
		g.QualifiedColumn,
		func() *peg.Node { return p.Seq(RuleColumn, p.Ident) },
	)
}

// QualifiedColumn parses alias.column.
func (g *Grammar) QualifiedColumn() *peg.Node {
	p := g.P
	return p.Seq(RuleColumn, p.Ident, p.Sym("."), p.Ident)
}

// Condition parses a single condition.
func (g *Grammar) Condition() *peg.Node {
	p := g.P
	return p.Choice(
		func() *peg.Node { return p.Seq(RuleExists, p.Kw("not"), p.Kw("exists"), g.Subquery) },
		func() *peg.Node { return p.Seq(RuleExists, p.Kw("exists"), g.Subquery) },
		g.predicate,
	)
}

// predicate parses the conditions that start with an expression. The
// expression is parsed once and the suffix decides the condition kind; a
// lone true or false with no suffix is a bare boolean.
func (g *Grammar) predicate() *peg.Node {
	p := g.P
	m := p.Mark()
	lhs := g.Arith()
	if lhs == nil {
		return nil
	}
	rest := p.Choice(
		func() *peg.Node { return p.Seq(RuleNullCheck, p.Kw("is"), p.Kw("not"), p.Kw("null")) },
		func() *peg.Node { return p.Seq(RuleNullCheck, p.Kw("is"), p.Kw("null")) },
		func() *peg.Node { return p.Seq(RuleIn, p.Kw("not"), p.Kw("in"), g.Subquery) },
		func() *peg.Node { return p.Seq(RuleIn, p.Kw("in"), g.Subquery) },
		func() *peg.Node { return p.Seq(RuleCompare, g.compareOp, g.Arith) },
	)
	if rest != nil {
		return p.Node(rest.Rule, append([]*peg.Node{lhs}, rest.Kids...)...)
	}
	if leaf := booleanLeaf(lhs); leaf != nil {
		return p.Node(RuleBoolean, leaf)
	}
	p.Reset(m)
	return nil
}

func booleanLeaf(arith *peg.Node) *peg.Node {
	if len(arith.Kids) != 1 || arith.Kids[0].Rule != RuleValue {
		return nil
	}
	leaf := arith.Kids[0].Kids[0]
	if leaf.Is("true") || leaf.Is("false") {
		return leaf
	}
	return nil
}

func (g *Grammar) compareOp() *peg.Node {
	p := g.P
	return p.Choice(p.Sym(">="), p.Sym("<="), p.Sym("!="), p.Sym("=="), p.Sym("<"), p.Sym(">"), p.Sym("="))
}

// BoolExpr parses a chain of conditions joined by and/or.
func (g *Grammar) BoolExpr() *peg.Node {
	p := g.P
	return p.Memo(RuleBoolExpr, func() *peg.Node {
		first := g.boolTerm()
		if first == nil {
			return nil
		}
		kids := []*peg.Node{first}
		for {
			m := p.Mark()
			c := g.connective()
			if c == nil {
				break
			}
			t := g.boolTerm()
			if t == nil {
				p.Reset(m)
				break
			}
			kids = append(kids, c, t)
		}
		return p.Node(RuleBoolExpr, kids...)
	})
}

func (g *Grammar) boolTerm() *peg.Node {
	p := g.P
	return p.Memo(memoBoolTerm, func() *peg.Node {
		return p.Nest(func() *peg.Node {
			return p.Choice(
				func() *peg.Node { return p.Seq(RuleBoolParen, p.Sym("("), g.BoolExpr, p.Sym(")")) },
				g.Condition,
			)
		})
	})
}

func (g *Grammar) connective() *peg.Node {
	p := g.P
	if g.SymbolConnectives {
		return p.Choice(p.Kw("and"), p.Kw("or"), p.Sym("&&"), p.Sym("||"))
	}
	return p.Choice(p.Kw("and"), p.Kw("or"))
}

// Alias parses an optional output name: "as" ident, or a bare ident.
func (g *Grammar) Alias() *peg.Node {
	p := g.P
	return p.Choice(
		func() *peg.Node { return p.Seq(RuleAlias, p.Kw("as"), p.Ident) },
		func() *peg.Node { return p.Seq(RuleAlias, p.Ident) },
	)
}

// SelectItem parses an expression with an optional alias.
func (g *Grammar) SelectItem() *peg.Node {
	p := g.P
	e := g.Arith()
	if e == nil {
		return nil
	}
	return p.Node(RuleSelectItem, e, g.Alias())
}

// OrderItem parses an expression with optional direction and nulls
// placement. The builder rejects anything but a column.
func (g *Grammar) OrderItem() *peg.Node {
	p := g.P
	e := g.Arith()
	if e == nil {
		return nil
	}
	dir := p.Choice(p.Kw("asc"), p.Kw("desc"))
	nulls := p.Seq(RuleNulls, p.Kw("nulls"), func() *peg.Node { return p.Choice(p.Kw("first"), p.Kw("last")) })
	return p.Node(RuleOrderItem, e, dir, nulls)
}
