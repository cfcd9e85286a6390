// Package dataframe implements the method-chain query language.
//
//	query    := ident method*
//	method   := "." ( "select" "(" ("distinct" ",")? select_item ("," select_item)* ")"
//	              | "filter" "(" dqstring ")"
//	              | "groupby" "(" column ("," column)* ")"
//	              | "having" "(" dqstring ")"
//	              | "agg" "(" agg_item ("," agg_item)* ")"
//	              | "join" "(" source "," keys "," keys ("," dqstring)? ")"
//	              | "sort" "(" order_item ("," order_item)* ")"
//	              | "distinct" "(" ")"
//	              | "limit" "(" integer ")"
//	              | "offset" "(" integer ")" )
//	agg_item := aggregate alias?
//	source   := ident alias?
//	keys     := "[" column ("," column)* "]"
//
// The arguments of filter and having are conditions held in a string. They
// are parsed by a second grammar only when the chain is built, where "&&"
// and "||" also join conditions and a subquery is a parenthesized chain with
// at least one method.
package dataframe

import (
	"github.com/roach88/streamql/internal/expr"
	"github.com/roach88/streamql/internal/peg"
)

// Parse tree rules.
const (
	RuleQuery    peg.Rule = "query"
	RuleSelect   peg.Rule = "select"
	RuleFilter   peg.Rule = "filter"
	RuleGroupBy  peg.Rule = "groupby"
	RuleHaving   peg.Rule = "having"
	RuleAgg      peg.Rule = "agg"
	RuleAggItem  peg.Rule = "agg_item"
	RuleJoin     peg.Rule = "join"
	RuleKeys     peg.Rule = "keys"
	RuleSort     peg.Rule = "sort"
	RuleDistinct peg.Rule = "distinct"
	RuleLimit    peg.Rule = "limit"
	RuleOffset   peg.Rule = "offset"
)

// Grammar returns the dialect's entry point.
func Grammar() peg.Grammar {
	return peg.Grammar{
		Reserved: expr.Reserved,
		Start: func(p *peg.Parser) *peg.Node {
			return newGrammar(p, false).chain(0)
		},
	}
}

// ConditionGrammar returns the grammar of filter and having arguments.
func ConditionGrammar() peg.Grammar {
	return peg.Grammar{
		Reserved: expr.Reserved,
		Start: func(p *peg.Parser) *peg.Node {
			return newGrammar(p, true).e.BoolExpr()
		},
	}
}

// Parse returns the concrete parse tree of src. Filter and having strings
// are left unparsed.
func Parse(src string, cfg peg.Config) (*peg.Node, error) {
	return peg.Run(src, cfg, Grammar())
}

type grammar struct {
	p *peg.Parser
	e *expr.Grammar
}

func newGrammar(p *peg.Parser, symbols bool) *grammar {
	g := &grammar{p: p}
	g.e = &expr.Grammar{P: p, Query: g.subquery, SymbolConnectives: symbols}
	return g
}

func (g *grammar) subquery() *peg.Node {
	return g.p.Memo(RuleQuery, func() *peg.Node { return g.chain(1) })
}

// chain parses a table name followed by at least the given number of methods.
func (g *grammar) chain(least int) *peg.Node {
	p := g.p
	m := p.Mark()
	base := p.Ident()
	if base == nil {
		return nil
	}
	kids := []*peg.Node{base}
	for {
		before := p.Mark()
		if p.Symbol(".") == nil {
			break
		}
		meth := p.Choice(
			g.selectMethod, g.filter, g.groupBy, g.having, g.agg,
			g.join, g.sort, g.distinct, g.limit, g.offset,
		)
		if meth == nil {
			p.Reset(before)
			break
		}
		kids = append(kids, meth)
	}
	if len(kids)-1 < least {
		p.Reset(m)
		return nil
	}
	return p.Node(RuleQuery, kids...)
}

// call matches name "(" args ")". args reports false to reject the call.
func (g *grammar) call(rule peg.Rule, name string, args func() ([]*peg.Node, bool)) *peg.Node {
	p := g.p
	m := p.Mark()
	head := p.Seq(rule, p.Kw(name), p.Sym("("))
	if head == nil {
		return nil
	}
	kids, ok := args()
	if !ok {
		p.Reset(m)
		return nil
	}
	end := p.Symbol(")")
	if end == nil {
		p.Reset(m)
		return nil
	}
	out := append(head.Kids, kids...)
	return p.Node(rule, append(out, end)...)
}

func list(items []*peg.Node) ([]*peg.Node, bool) { return items, items != nil }

func one(n *peg.Node) ([]*peg.Node, bool) {
	if n == nil {
		return nil, false
	}
	return []*peg.Node{n}, true
}

func (g *grammar) selectMethod() *peg.Node {
	p := g.p
	return g.call(RuleSelect, "select", func() ([]*peg.Node, bool) {
		distinct := p.Seq(RuleDistinct, p.Kw("distinct"), p.Sym(","))
		items := p.List(",", g.e.SelectItem)
		if items == nil {
			return nil, false
		}
		if distinct != nil {
			items = append([]*peg.Node{distinct}, items...)
		}
		return items, true
	})
}

func (g *grammar) dqString() *peg.Node { return g.p.String('"') }

func (g *grammar) filter() *peg.Node {
	return g.call(RuleFilter, "filter", func() ([]*peg.Node, bool) { return one(g.dqString()) })
}

func (g *grammar) having() *peg.Node {
	return g.call(RuleHaving, "having", func() ([]*peg.Node, bool) { return one(g.dqString()) })
}

func (g *grammar) groupBy() *peg.Node {
	return g.call(RuleGroupBy, "groupby", func() ([]*peg.Node, bool) { return list(g.p.List(",", g.e.Column)) })
}

func (g *grammar) agg() *peg.Node {
	return g.call(RuleAgg, "agg", func() ([]*peg.Node, bool) { return list(g.p.List(",", g.aggItem)) })
}

func (g *grammar) aggItem() *peg.Node {
	a := g.e.Aggregate()
	if a == nil {
		return nil
	}
	return g.p.Node(RuleAggItem, a, g.e.Alias())
}

func (g *grammar) join() *peg.Node {
	p := g.p
	return g.call(RuleJoin, "join", func() ([]*peg.Node, bool) {
		name := p.Ident()
		if name == nil {
			return nil, false
		}
		src := p.Node(expr.RuleSource, name, g.e.Alias())
		left := p.Seq("left", p.Sym(","), g.keys)
		right := p.Seq("right", p.Sym(","), g.keys)
		if left == nil || right == nil {
			return nil, false
		}
		kids := []*peg.Node{src, left.Kids[1], right.Kids[1]}
		if kind := p.Seq("kind", p.Sym(","), g.dqString); kind != nil {
			kids = append(kids, kind.Kids[1])
		}
		return kids, true
	})
}

func (g *grammar) keys() *peg.Node {
	p := g.p
	m := p.Mark()
	open := p.Symbol("[")
	if open == nil {
		return nil
	}
	cols := p.List(",", g.e.Column)
	end := p.Symbol("]")
	if cols == nil || end == nil {
		p.Reset(m)
		return nil
	}
	return p.Node(RuleKeys, append(append([]*peg.Node{open}, cols...), end)...)
}

func (g *grammar) sort() *peg.Node {
	return g.call(RuleSort, "sort", func() ([]*peg.Node, bool) { return list(g.p.List(",", g.e.OrderItem)) })
}

func (g *grammar) distinct() *peg.Node {
	return g.call(RuleDistinct, "distinct", func() ([]*peg.Node, bool) { return nil, true })
}

func (g *grammar) limit() *peg.Node {
	return g.call(RuleLimit, "limit", func() ([]*peg.Node, bool) { return one(g.p.Integer()) })
}

func (g *grammar) offset() *peg.Node {
	return g.call(RuleOffset, "offset", func() ([]*peg.Node, bool) { return one(g.p.Integer()) })
}
