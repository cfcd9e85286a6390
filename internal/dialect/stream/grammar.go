// Package stream implements the line-oriented streaming query language.
//
//	query  := from clause*
//	clause := where | group | select | order | limit
//	from   := "from" source join*
//	source := ident "in" ident
//	        | ident (":" "Stream")? alias?
//	        | "(" query ")" alias?
//	where  := "where" bool_expr
//	group  := "group" "by"? arith ("," arith)* ("{" bool_expr "}" | "having" bool_expr)?
//	select := "select" "distinct"? ("*" | select_item ("," select_item)*)
//	order  := "order" "by"? order_item ("," order_item)*
//
// Clauses after from may come in any order; the AST always lists them in
// canonical order. Each clause may appear once and select is required.
package stream

import (
	"github.com/roach88/streamql/internal/expr"
	"github.com/roach88/streamql/internal/peg"
)

// Parse tree rules.
const (
	RuleQuery      peg.Rule = "query"
	RuleFrom       peg.Rule = "from"
	RuleWhere      peg.Rule = "where"
	RuleGroup      peg.Rule = "group"
	RuleHaving     peg.Rule = "having"
	RuleSelect     peg.Rule = "select"
	RuleProjection peg.Rule = "projection"
	RuleOrder      peg.Rule = "order"
)

// Grammar returns the dialect's entry point.
func Grammar() peg.Grammar {
	return peg.Grammar{
		Reserved: expr.Reserved,
		Start: func(p *peg.Parser) *peg.Node {
			return newGrammar(p).query()
		},
	}
}

// Parse returns the concrete parse tree of src.
func Parse(src string, cfg peg.Config) (*peg.Node, error) {
	return peg.Run(src, cfg, Grammar())
}

type grammar struct {
	p *peg.Parser
	e *expr.Grammar
}

func newGrammar(p *peg.Parser) *grammar {
	g := &grammar{p: p}
	g.e = &expr.Grammar{P: p, Query: g.query}
	return g
}

func (g *grammar) query() *peg.Node {
	p := g.p
	return p.Memo(RuleQuery, func() *peg.Node {
		from := g.from()
		if from == nil {
			return nil
		}
		kids := []*peg.Node{from}
		for {
			c := p.Choice(g.where, g.group, g.selectClause, g.order, g.e.Limit)
			if c == nil {
				break
			}
			kids = append(kids, c)
		}
		return p.Node(RuleQuery, kids...)
	})
}

func (g *grammar) from() *peg.Node {
	p := g.p
	m := p.Mark()
	kw := p.Keyword("from")
	if kw == nil {
		return nil
	}
	src := g.source()
	if src == nil {
		p.Reset(m)
		return nil
	}
	kids := []*peg.Node{kw, src}
	for {
		j := g.e.Join(g.source)
		if j == nil {
			break
		}
		kids = append(kids, j)
	}
	return p.Node(RuleFrom, kids...)
}

func (g *grammar) source() *peg.Node {
	p := g.p
	if n := p.Seq(expr.RuleSource, p.Ident, p.Kw("in"), p.Ident); n != nil {
		return n
	}
	if sub := g.e.Subquery(); sub != nil {
		return p.Node(expr.RuleSource, sub, g.e.Alias())
	}
	name := p.Ident()
	if name == nil {
		return nil
	}
	typed := p.Seq("typed", p.Sym(":"), p.Kw("Stream"))
	kids := []*peg.Node{name}
	if typed != nil {
		kids = append(kids, typed.Kids...)
	}
	return p.Node(expr.RuleSource, append(kids, g.e.Alias())...)
}

func (g *grammar) where() *peg.Node {
	p := g.p
	return p.Seq(RuleWhere, p.Kw("where"), g.e.BoolExpr)
}

func (g *grammar) group() *peg.Node {
	p := g.p
	m := p.Mark()
	kw := p.Keyword("group")
	if kw == nil {
		return nil
	}
	by := p.Keyword("by")
	keys := p.List(",", g.e.Arith)
	if keys == nil {
		p.Reset(m)
		return nil
	}
	having := p.Choice(
		func() *peg.Node { return p.Seq(RuleHaving, p.Sym("{"), g.e.BoolExpr, p.Sym("}")) },
		func() *peg.Node { return p.Seq(RuleHaving, p.Kw("having"), g.e.BoolExpr) },
	)
	kids := append([]*peg.Node{kw, by}, keys...)
	return p.Node(RuleGroup, append(kids, having)...)
}

func (g *grammar) selectClause() *peg.Node {
	p := g.p
	m := p.Mark()
	kw := p.Keyword("select")
	if kw == nil {
		return nil
	}
	distinct := p.Keyword("distinct")
	var proj *peg.Node
	if star := p.Symbol("*"); star != nil {
		proj = p.Node(RuleProjection, star)
	} else if items := p.List(",", g.e.SelectItem); items != nil {
		proj = p.Node(RuleProjection, items...)
	} else {
		p.Reset(m)
		return nil
	}
	return p.Node(RuleSelect, kw, distinct, proj)
}

func (g *grammar) order() *peg.Node {
	p := g.p
	m := p.Mark()
	kw := p.Keyword("order")
	if kw == nil {
		return nil
	}
	by := p.Keyword("by")
	items := p.List(",", g.e.OrderItem)
	if items == nil {
		p.Reset(m)
		return nil
	}
	return p.Node(RuleOrder, append([]*peg.Node{kw, by}, items...)...)
}
