package dataframe

import (
	"errors"
	"strings"

	"github.com/roach88/streamql/internal/expr"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/lexer"
	"github.com/roach88/streamql/internal/peg"
)

// Build transforms a tree returned by Parse into the common AST. Filter and
// having strings are parsed here, with cfg's limits.
func Build(src string, root *peg.Node, cfg peg.Config) (*ir.Query, error) {
	return newBuilder(src, cfg).query(root)
}

// Compile parses and builds src.
func Compile(src string, cfg peg.Config) (*ir.Query, error) {
	root, err := Parse(src, cfg)
	if err != nil {
		return nil, err
	}
	return Build(src, root, cfg)
}

type builder struct {
	e   *expr.Builder
	cfg peg.Config
}

func newBuilder(src string, cfg peg.Config) *builder {
	b := &builder{cfg: cfg}
	b.e = &expr.Builder{Src: src, Query: b.query}
	return b
}

func (b *builder) structural(n *peg.Node, code, format string, args ...any) error {
	return peg.Structural(b.e.Src, n, code, format, args...)
}

// methods indexes the methods of a chain by rule. join may repeat and is
// returned separately in order.
func (b *builder) methods(n *peg.Node) (map[peg.Rule]*peg.Node, []*peg.Node, error) {
	seen := make(map[peg.Rule]*peg.Node)
	var joins []*peg.Node
	for _, m := range n.Kids[1:] {
		if m.Rule == RuleJoin {
			joins = append(joins, m)
			continue
		}
		if _, dup := seen[m.Rule]; dup {
			return nil, nil, b.structural(m, peg.ErrDuplicateClause, "%s called more than once", m.Rule)
		}
		seen[m.Rule] = m
	}
	return seen, joins, nil
}

func (b *builder) checkDependencies(ms map[peg.Rule]*peg.Node) error {
	_, grouped := ms[RuleGroupBy]
	if a, ok := ms[RuleAgg]; ok {
		if _, ok := ms[RuleSelect]; ok {
			return b.structural(a, peg.ErrConflictingMethods, "agg cannot be combined with select")
		}
		if !grouped {
			return b.structural(a, peg.ErrMethodDependency, "agg requires groupby")
		}
	}
	if h, ok := ms[RuleHaving]; ok && !grouped {
		return b.structural(h, peg.ErrHavingWithoutGroup, "having requires groupby")
	}
	if o, ok := ms[RuleOffset]; ok {
		if _, ok := ms[RuleLimit]; !ok {
			return b.structural(o, peg.ErrOffsetWithoutLimit, "offset requires limit")
		}
	}
	return nil
}

func (b *builder) query(n *peg.Node) (*ir.Query, error) {
	if n.Rule != RuleQuery || len(n.Kids) == 0 {
		return nil, b.structural(n, peg.ErrUnexpectedParseTree, "expected method chain, found %s", n.Rule)
	}
	ms, joins, err := b.methods(n)
	if err != nil {
		return nil, err
	}
	if err := b.checkDependencies(ms); err != nil {
		return nil, err
	}

	base := n.Kids[0].Text()
	q := &ir.Query{Scan: ir.Scan{Source: ir.ScanSource{Stream: base}}}
	for _, jn := range joins {
		j, err := b.join(base, jn)
		if err != nil {
			return nil, err
		}
		q.Scan.Joins = append(q.Scan.Joins, j)
	}

	if f, ok := ms[RuleFilter]; ok {
		if q.Filter, err = b.condition(f); err != nil {
			return nil, err
		}
	}

	if g, ok := ms[RuleGroupBy]; ok {
		spec := &ir.GroupSpec{}
		for _, c := range g.All(expr.RuleColumn) {
			spec.Keys = append(spec.Keys, b.e.Column(c))
		}
		if h, ok := ms[RuleHaving]; ok {
			if spec.Having, err = b.condition(h); err != nil {
				return nil, err
			}
		}
		q.Group = spec
	}

	if q.Projection, err = b.projection(ms, q.Group); err != nil {
		return nil, err
	}

	if s, ok := ms[RuleSort]; ok {
		for _, it := range s.All(expr.RuleOrderItem) {
			item, err := b.e.OrderItem(it)
			if err != nil {
				return nil, err
			}
			q.Order = append(q.Order, item)
		}
	}

	if l, ok := ms[RuleLimit]; ok {
		limit, err := b.e.Integer(l.Kids[2])
		if err != nil {
			return nil, err
		}
		q.Limit = &ir.LimitSpec{Limit: limit}
		if o, ok := ms[RuleOffset]; ok {
			off, err := b.e.Integer(o.Kids[2])
			if err != nil {
				return nil, err
			}
			q.Limit.Offset = &off
		}
	}
	return q, nil
}

// projection derives the output columns. With agg they are the group keys
// followed by the aggregates; with neither select nor agg it is "*".
func (b *builder) projection(ms map[peg.Rule]*peg.Node, group *ir.GroupSpec) (ir.Projection, error) {
	var proj ir.Projection
	_, proj.Distinct = ms[RuleDistinct]

	switch {
	case ms[RuleSelect] != nil:
		sel := ms[RuleSelect]
		if sel.Find(RuleDistinct) != nil {
			proj.Distinct = true
		}
		for _, it := range sel.All(expr.RuleSelectItem) {
			item, err := b.e.SelectItem(it)
			if err != nil {
				return ir.Projection{}, err
			}
			proj.Items = append(proj.Items, item)
		}
	case ms[RuleAgg] != nil:
		for _, k := range group.Keys {
			proj.Items = append(proj.Items, ir.ProjectionItem{Expr: ir.Column{Ref: k}})
		}
		for _, it := range ms[RuleAgg].All(RuleAggItem) {
			a, err := b.e.Aggregate(it.Kids[0])
			if err != nil {
				return ir.Projection{}, err
			}
			proj.Items = append(proj.Items, ir.ProjectionItem{Expr: a, Alias: expr.AliasName(it)})
		}
	default:
		proj.Star = true
	}
	return proj, nil
}

// join builds a join method. Unqualified left keys belong to the base
// table and unqualified right keys to the joined one.
func (b *builder) join(base string, n *peg.Node) (ir.JoinSpec, error) {
	src := n.Find(expr.RuleSource)
	spec := ir.JoinSpec{
		Kind:   ir.JoinInner,
		Source: ir.ScanSource{Stream: src.Kids[0].Text(), Alias: expr.AliasName(src)},
	}
	keys := n.All(RuleKeys)
	left, right := keys[0].All(expr.RuleColumn), keys[1].All(expr.RuleColumn)
	if len(left) != len(right) {
		return ir.JoinSpec{}, b.structural(n, peg.ErrJoinKeyArity,
			"join has %d left keys and %d right keys", len(left), len(right))
	}
	if k := kindString(n); k != nil {
		kind, ok := joinKind(k.Text())
		if !ok {
			return ir.JoinSpec{}, b.structural(k, peg.ErrUnknownJoinKind, "unknown join kind")
		}
		spec.Kind = kind
	}

	for i := range left {
		l, r := b.e.Column(left[i]), b.e.Column(right[i])
		if l.Qualifier == "" {
			l.Qualifier = base
		}
		if r.Qualifier == "" {
			r.Qualifier = spec.Source.Name()
		}
		spec.On = append(spec.On, ir.JoinPredicate{Left: l, Right: r})
	}
	return spec, nil
}

func kindString(join *peg.Node) *peg.Node {
	for _, k := range join.Kids {
		if k.IsLeaf() && k.Tok.Kind == lexer.String {
			return k
		}
	}
	return nil
}

func joinKind(s string) (ir.JoinKind, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "inner":
		return ir.JoinInner, true
	case "left", "left outer":
		return ir.JoinLeft, true
	case "outer":
		return ir.JoinOuter, true
	}
	return "", false
}

// condition parses and builds the string argument of filter or having.
// Positions in errors are relative to the string's content; a syntax error
// also carries the matching position in the enclosing query.
func (b *builder) condition(n *peg.Node) (ir.BoolExpr, error) {
	str := n.Kids[2]
	text := str.Text()
	root, err := peg.Run(text, b.cfg, ConditionGrammar())
	if err != nil {
		var se *peg.SyntaxError
		if errors.As(err, &se) {
			se.Outer = outerPos(str.Tok, se.Pos)
		}
		return nil, err
	}
	return newBuilder(text, b.cfg).e.Bool(root)
}

// outerPos maps a position inside a double-quoted string's content onto
// the enclosing text. Such strings never span lines.
func outerPos(str lexer.Token, inner lexer.Pos) *lexer.Pos {
	return &lexer.Pos{
		Offset: str.Pos.Offset + 1 + inner.Offset,
		Line:   str.Pos.Line,
		Column: str.Pos.Column + inner.Column,
	}
}
