package queryir

import (
	"errors"
	"fmt"

	"github.com/roach88/streamql/internal/ir"
)

// ErrNilQuery is returned when Lower is given a nil query.
var ErrNilQuery = errors.New("nil query")

// Lower turns q into a Plan. It fails only on queries no dialect can
// produce: a nil query, or a source with neither a stream nor a subquery.
func Lower(q *ir.Query) (*Plan, error) {
	if q == nil {
		return nil, ErrNilQuery
	}
	var l lowerer
	return l.query(q)
}

type lowerer struct{}

func (l lowerer) query(q *ir.Query) (*Plan, error) {
	p := &Plan{}

	scan, err := l.source(q.Scan.Source)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	p.Ops = append(p.Ops, scan)

	for i, j := range q.Scan.Joins {
		src, err := l.source(j.Source)
		if err != nil {
			return nil, fmt.Errorf("join %d: %w", i, err)
		}
		p.Ops = append(p.Ops, Join{Kind: j.Kind, Source: src, On: j.On})
	}

	if q.Filter != nil {
		subs, err := l.condSubplans(q.Filter, nil)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		p.Ops = append(p.Ops, Filter{Predicate: q.Filter, Subplans: subs})
	}

	if agg, ok, err := l.aggregate(q); err != nil {
		return nil, err
	} else if ok {
		p.Ops = append(p.Ops, agg)
	}

	proj := Project{Star: q.Projection.Star, Items: q.Projection.Items}
	for _, item := range q.Projection.Items {
		subs, err := l.exprSubplans(item.Expr, proj.Subplans)
		if err != nil {
			return nil, fmt.Errorf("projection: %w", err)
		}
		proj.Subplans = subs
	}
	p.Ops = append(p.Ops, proj)

	if q.Projection.Distinct {
		p.Ops = append(p.Ops, Distinct{})
	}
	if len(q.Order) > 0 {
		p.Ops = append(p.Ops, Sort{Items: q.Order})
	}
	if q.Limit != nil {
		lim := Limit{Count: q.Limit.Limit}
		if q.Limit.Offset != nil {
			lim.Offset = *q.Limit.Offset
		}
		p.Ops = append(p.Ops, lim)
	}
	return p, nil
}

func (l lowerer) source(s ir.ScanSource) (Scan, error) {
	switch {
	case s.Subquery != nil:
		in, err := l.query(s.Subquery)
		if err != nil {
			return Scan{}, err
		}
		return Scan{Input: in, Alias: s.Alias}, nil
	case s.Stream != "":
		return Scan{Stream: s.Stream, Alias: s.Alias}, nil
	}
	return Scan{}, errors.New("source has neither a stream nor a subquery")
}

// aggregate builds the Aggregate step. It is present when the query groups
// or when its projection or having clause calls an aggregate.
func (l lowerer) aggregate(q *ir.Query) (Aggregate, bool, error) {
	var agg Aggregate
	for _, item := range q.Projection.Items {
		agg.Calls = collectCalls(item.Expr, agg.Calls)
	}
	if q.Group != nil {
		agg.Keys = q.Group.Keys
		agg.Having = q.Group.Having
		if q.Group.Having != nil {
			agg.Calls = collectCondCalls(q.Group.Having, agg.Calls)
			subs, err := l.condSubplans(q.Group.Having, nil)
			if err != nil {
				return Aggregate{}, false, fmt.Errorf("having: %w", err)
			}
			agg.Subplans = subs
		}
	}
	return agg, q.Group != nil || len(agg.Calls) > 0, nil
}

func collectCalls(e ir.Expr, calls []ir.Aggregate) []ir.Aggregate {
	switch e := e.(type) {
	case ir.Aggregate:
		for _, c := range calls {
			if c == e {
				return calls
			}
		}
		return append(calls, e)
	case ir.Binary:
		calls = collectCalls(e.Left, calls)
		return collectCalls(e.Right, calls)
	}
	return calls
}

func collectCondCalls(c ir.BoolExpr, calls []ir.Aggregate) []ir.Aggregate {
	switch c := c.(type) {
	case ir.Comparison:
		calls = collectCalls(c.Left, calls)
		return collectCalls(c.Right, calls)
	case ir.NullCheck:
		return collectCalls(c.Expr, calls)
	case ir.In:
		return collectCalls(c.Expr, calls)
	case ir.Logical:
		calls = collectCondCalls(c.Left, calls)
		return collectCondCalls(c.Right, calls)
	}
	return calls
}

func (l lowerer) exprSubplans(e ir.Expr, subs []*Plan) ([]*Plan, error) {
	switch e := e.(type) {
	case ir.Subquery:
		return l.appendPlan(e.Query, subs)
	case ir.Binary:
		subs, err := l.exprSubplans(e.Left, subs)
		if err != nil {
			return nil, err
		}
		return l.exprSubplans(e.Right, subs)
	}
	return subs, nil
}

func (l lowerer) condSubplans(c ir.BoolExpr, subs []*Plan) ([]*Plan, error) {
	var err error
	switch c := c.(type) {
	case ir.Comparison:
		if subs, err = l.exprSubplans(c.Left, subs); err != nil {
			return nil, err
		}
		return l.exprSubplans(c.Right, subs)
	case ir.NullCheck:
		return l.exprSubplans(c.Expr, subs)
	case ir.Exists:
		return l.appendPlan(c.Query, subs)
	case ir.In:
		if subs, err = l.exprSubplans(c.Expr, subs); err != nil {
			return nil, err
		}
		return l.appendPlan(c.Query, subs)
	case ir.Logical:
		if subs, err = l.condSubplans(c.Left, subs); err != nil {
			return nil, err
		}
		return l.condSubplans(c.Right, subs)
	}
	return subs, nil
}

func (l lowerer) appendPlan(q *ir.Query, subs []*Plan) ([]*Plan, error) {
	if q == nil {
		return nil, ErrNilQuery
	}
	p, err := l.query(q)
	if err != nil {
		return nil, err
	}
	return append(subs, p), nil
}
