package expr

import (
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/peg"
)

// Clause rules shared by the SQL-like and streaming grammars.
//
//	source    := ("(" query ")" | ident) alias?
//	join      := ("inner" | "left" "outer"? | "outer")? "join" source "on" join_pred ("and" join_pred)*
//	join_pred := ident "." ident ("==" | "=") ident "." ident
//	limit     := "limit" integer ("offset" integer)?
const (
	RuleSource   peg.Rule = "source"
	RuleJoin     peg.Rule = "join"
	RuleJoinPred peg.Rule = "join_pred"
	RuleLimit    peg.Rule = "limit"
)

// Source parses a named or derived source with an optional alias.
func (g *Grammar) Source() *peg.Node {
	p := g.P
	base := p.Choice(g.Subquery, p.Ident)
	if base == nil {
		return nil
	}
	return p.Node(RuleSource, base, g.Alias())
}

// Join parses one join clause whose source is parsed by source.
func (g *Grammar) Join(source func() *peg.Node) *peg.Node {
	p := g.P
	m := p.Mark()
	kind := p.Choice(
		func() *peg.Node { return p.Seq("kind", p.Kw("inner")) },
		func() *peg.Node {
			left := p.Keyword("left")
			if left == nil {
				return nil
			}
			return p.Node("kind", left, p.Keyword("outer"))
		},
		func() *peg.Node { return p.Seq("kind", p.Kw("outer")) },
	)
	kids := []*peg.Node{}
	if kind != nil {
		kids = append(kids, kind.Kids...)
	}
	head := p.Seq("head", p.Kw("join"), source, p.Kw("on"))
	if head == nil {
		p.Reset(m)
		return nil
	}
	kids = append(kids, head.Kids...)

	pred := g.joinPred()
	if pred == nil {
		p.Reset(m)
		return nil
	}
	kids = append(kids, pred)
	for {
		before := p.Mark()
		and := p.Keyword("and")
		if and == nil {
			break
		}
		next := g.joinPred()
		if next == nil {
			p.Reset(before)
			break
		}
		kids = append(kids, next)
	}
	return p.Node(RuleJoin, kids...)
}

// joinPred accepts only qualified columns, so an unqualified join key is a
// syntax error.
func (g *Grammar) joinPred() *peg.Node {
	p := g.P
	return p.Seq(RuleJoinPred,
		g.QualifiedColumn,
		func() *peg.Node { return p.Choice(p.Sym("=="), p.Sym("=")) },
		g.QualifiedColumn,
	)
}

// Limit parses a limit clause with optional offset.
func (g *Grammar) Limit() *peg.Node {
	p := g.P
	lim := p.Seq(RuleLimit, p.Kw("limit"), p.Integer)
	if lim == nil {
		return nil
	}
	off := p.Seq("offset", p.Kw("offset"), p.Integer)
	if off == nil {
		return lim
	}
	return p.Node(RuleLimit, append(lim.Kids, off.Kids...)...)
}

// Source builds a scan source. Besides the plain form it understands
// "alias in stream", whose node holds [alias, "in", stream].
func (b *Builder) Source(n *peg.Node) (ir.ScanSource, error) {
	if len(n.Kids) == 3 && n.Kids[1].Is("in") {
		return ir.ScanSource{Stream: n.Kids[2].Text(), Alias: n.Kids[0].Text()}, nil
	}
	src := ir.ScanSource{Alias: AliasName(n)}
	base := n.Kids[0]
	if base.Rule == RuleSubquery {
		q, err := b.Subquery(base)
		if err != nil {
			return ir.ScanSource{}, err
		}
		src.Subquery = q
		return src, nil
	}
	src.Stream = base.Text()
	return src, nil
}

// Join builds a join. The kind defaults to inner; "left outer" is left.
func (b *Builder) Join(n *peg.Node) (ir.JoinSpec, error) {
	spec := ir.JoinSpec{Kind: ir.JoinInner}
	switch {
	case n.Has("left"):
		spec.Kind = ir.JoinLeft
	case n.Has("outer"):
		spec.Kind = ir.JoinOuter
	}
	src, err := b.Source(n.Find(RuleSource))
	if err != nil {
		return ir.JoinSpec{}, err
	}
	spec.Source = src
	for _, pred := range n.All(RuleJoinPred) {
		spec.On = append(spec.On, ir.JoinPredicate{
			Left:  b.Column(pred.Kids[0]),
			Right: b.Column(pred.Kids[2]),
		})
	}
	return spec, nil
}

// Limit builds a limit clause.
func (b *Builder) Limit(n *peg.Node) (*ir.LimitSpec, error) {
	limit, err := b.Integer(n.Kids[1])
	if err != nil {
		return nil, err
	}
	spec := &ir.LimitSpec{Limit: limit}
	if len(n.Kids) == 4 {
		off, err := b.Integer(n.Kids[3])
		if err != nil {
			return nil, err
		}
		spec.Offset = &off
	}
	return spec, nil
}
