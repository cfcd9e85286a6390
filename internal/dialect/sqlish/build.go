package sqlish

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

func (b *builder) query(n *peg.Node) (*ir.Query, error) {
	if n.Rule != RuleQuery {
		return nil, peg.Structural(b.e.Src, n, peg.ErrUnexpectedParseTree, "expected query, found %s", n.Rule)
	}
	q := &ir.Query{}

	from := n.Find(RuleFrom)
	src, err := b.e.Source(from.Find(expr.RuleSource))
	if err != nil {
		return nil, err
	}
	q.Scan.Source = src
	for _, jn := range from.All(expr.RuleJoin) {
		j, err := b.e.Join(jn)
		if err != nil {
			return nil, err
		}
		q.Scan.Joins = append(q.Scan.Joins, j)
	}

	if w := n.Find(RuleWhere); w != nil {
		if q.Filter, err = b.e.Bool(w.Kids[1]); err != nil {
			return nil, err
		}
	}

	if g := n.Find(RuleGroup); g != nil {
		if q.Group, err = b.group(g); err != nil {
			return nil, err
		}
	}

	q.Projection.Distinct = n.Has("distinct")
	proj := n.Find(RuleProjection)
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

	if o := n.Find(RuleOrder); o != nil {
		for _, it := range o.All(expr.RuleOrderItem) {
			item, err := b.e.OrderItem(it)
			if err != nil {
				return nil, err
			}
			q.Order = append(q.Order, item)
		}
	}

	if l := n.Find(expr.RuleLimit); l != nil {
		if q.Limit, err = b.e.Limit(l); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (b *builder) group(n *peg.Node) (*ir.GroupSpec, error) {
	spec := &ir.GroupSpec{}
	for _, k := range n.All(expr.RuleArith) {
		col, err := b.e.ColumnOnly(k, peg.ErrGroupKeyNotColumn, "group by key")
		if err != nil {
			return nil, err
		}
		spec.Keys = append(spec.Keys, col)
	}
	if h := n.Find(RuleHaving); h != nil {
		having, err := b.e.Bool(h.Kids[1])
		if err != nil {
			return nil, err
		}
		spec.Having = having
	}
	return spec, nil
}
