package stream

import (
	"github.com/roach88/streamql/internal/expr"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/peg"
)

// Build transforms a tree returned by Parse into the common AST.
func Build(src string, root *peg.Node) (*ir.Query, error) {
	b := &builder{}
	b.e = &expr.Builder{Src: src, Query: b.query}
	return b.query(root)
}

// Compile parses and builds src.
func Compile(src string, cfg peg.Config) (*ir.Query, error) {
	root, err := Parse(src, cfg)
	if err != nil {
		return nil, err
	}
	return Build(src, root)
}

type builder struct {
	e *expr.Builder
}

// clauses indexes the clauses of a query node by rule, rejecting repeats.
func (b *builder) clauses(n *peg.Node) (map[peg.Rule]*peg.Node, error) {
	seen := make(map[peg.Rule]*peg.Node, len(n.Kids))
	for _, c := range n.Kids {
		if _, dup := seen[c.Rule]; dup {
			return nil, peg.Structural(b.e.Src, c, peg.ErrDuplicateClause, "%s clause given more than once", c.Rule)
		}
		seen[c.Rule] = c
	}
	return seen, nil
}

func (b *builder) query(n *peg.Node) (*ir.Query, error) {
	if n.Rule != RuleQuery {
		return nil, peg.Structural(b.e.Src, n, peg.ErrUnexpectedParseTree, "expected query, found %s", n.Rule)
	}
	cl, err := b.clauses(n)
	if err != nil {
		return nil, err
	}
	sel, ok := cl[RuleSelect]
	if !ok {
		return nil, peg.Structural(b.e.Src, n, peg.ErrMissingProjection, "query has no select clause")
	}

	q := &ir.Query{}
	from := cl[RuleFrom]
	if q.Scan.Source, err = b.e.Source(from.Find(expr.RuleSource)); err != nil {
		return nil, err
	}
	for _, jn := range from.All(expr.RuleJoin) {
		j, err := b.e.Join(jn)
		if err != nil {
			return nil, err
		}
		q.Scan.Joins = append(q.Scan.Joins, j)
	}

	if w, ok := cl[RuleWhere]; ok {
		if q.Filter, err = b.e.Bool(w.Kids[1]); err != nil {
			return nil, err
		}
	}

	if g, ok := cl[RuleGroup]; ok {
		spec := &ir.GroupSpec{}
		for _, k := range g.All(expr.RuleArith) {
			col, err := b.e.ColumnOnly(k, peg.ErrGroupKeyNotColumn, "group key")
			if err != nil {
				return nil, err
			}
			spec.Keys = append(spec.Keys, col)
		}
		if h := g.Find(RuleHaving); h != nil {
			if spec.Having, err = b.e.Bool(h.Find(expr.RuleBoolExpr)); err != nil {
				return nil, err
			}
		}
		q.Group = spec
	}

	q.Projection.Distinct = sel.Has("distinct")
	proj := sel.Find(RuleProjection)
	if proj.Kids[0].Is("*") {
		q.Projection.Star = true
	} else {
		for _, it := range proj.Kids {
			item, err := b.e.SelectItem(it)
			if err != nil {
				return nil, err
			}
			q.Projection.Items = append(q.Projection.Items, item)
		}
	}

	if o, ok := cl[RuleOrder]; ok {
		for _, it := range o.All(expr.RuleOrderItem) {
			item, err := b.e.OrderItem(it)
			if err != nil {
				return nil, err
			}
			q.Order = append(q.Order, item)
		}
	}

	if l, ok := cl[expr.RuleLimit]; ok {
		if q.Limit, err = b.e.Limit(l); err != nil {
			return nil, err
		}
	}
	return q, nil
}
