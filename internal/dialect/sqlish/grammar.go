// Package sqlish implements the SQL-like dialect.
//
//	query      := "select" "distinct"? projection from where? group? order? limit?
//	projection := "*" | select_item ("," select_item)*
//	from       := "from" source join*
//	where      := "where" bool_expr
//	group      := "group" "by" arith ("," arith)* ("having" bool_expr)?
//	order      := "order" "by" order_item ("," order_item)*
//
// Expressions, sources, joins and limits follow package expr. Group keys and
// order items are parsed as expressions so that a misplaced aggregate is
// reported as a structural error naming the offending text.
package sqlish

import (
	"github.com/roach88/streamql/internal/expr"
	"github.com/roach88/streamql/internal/peg"
)

// Parse tree rules.
const (
	RuleQuery      peg.Rule = "query"
	RuleProjection peg.Rule = "projection"
	RuleFrom       peg.Rule = "from"
	RuleWhere      peg.Rule = "where"
	RuleGroup      peg.Rule = "group"
	RuleHaving     peg.Rule = "having"
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
		m := p.Mark()
		sel := p.Keyword("select")
		if sel == nil {
			return nil
		}
		distinct := p.Keyword("distinct")
		proj := g.projection()
		if proj == nil {
			p.Reset(m)
			return nil
		}
		from := g.from()
		if from == nil {
			p.Reset(m)
			return nil
		}
		where := p.Seq(RuleWhere, p.Kw("where"), g.e.BoolExpr)
		group := g.group()
		order := g.order()
		limit := g.e.Limit()
		return p.Node(RuleQuery, sel, distinct, proj, from, where, group, order, limit)
	})
}

func (g *grammar) projection() *peg.Node {
	p := g.p
	if star := p.Symbol("*"); star != nil {
		return p.Node(RuleProjection, star)
	}
	items := p.List(",", g.e.SelectItem)
	if items == nil {
		return nil
	}
	return p.Node(RuleProjection, items...)
}

func (g *grammar) from() *peg.Node {
	p := g.p
	m := p.Mark()
	kw := p.Keyword("from")
	if kw == nil {
		return nil
	}
	src := g.e.Source()
	if src == nil {
		p.Reset(m)
		return nil
	}
	kids := []*peg.Node{kw, src}
	for {
		j := g.e.Join(g.e.Source)
		if j == nil {
			break
		}
		kids = append(kids, j)
	}
	return p.Node(RuleFrom, kids...)
}

func (g *grammar) group() *peg.Node {
	p := g.p
	m := p.Mark()
	head := p.Seq("head", p.Kw("group"), p.Kw("by"))
	if head == nil {
		return nil
	}
	keys := p.List(",", g.e.Arith)
	if keys == nil {
		p.Reset(m)
		return nil
	}
	kids := append(head.Kids, keys...)
	kids = append(kids, p.Seq(RuleHaving, p.Kw("having"), g.e.BoolExpr))
	return p.Node(RuleGroup, kids...)
}

func (g *grammar) order() *peg.Node {
	p := g.p
	m := p.Mark()
	head := p.Seq("head", p.Kw("order"), p.Kw("by"))
	if head == nil {
		return nil
	}
	items := p.List(",", g.e.OrderItem)
	if items == nil {
		p.Reset(m)
		return nil
	}
	return p.Node(RuleOrder, append(head.Kids, items...)...)
}
