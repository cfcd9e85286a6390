package queryir

import (
	"fmt"

	"github.com/roach88/streamql/internal/ir"
)

// Warning codes reported by Check.
const (
	WarnOuterJoin       = "W101"
	WarnUnboundedSort   = "W102"
	WarnScalarSubquery  = "W103"
	WarnNotIn           = "W104"
	WarnGlobalAggregate = "W105"
)

// Warning is one streaming-compatibility finding.
type Warning struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Path, w.Message)
}

// CompatibilityResult describes how well a query suits an unbounded source.
type CompatibilityResult struct {
	// IsStreamable is true when Check found nothing to report.
	IsStreamable bool

	// Warnings lists the findings in traversal order. Empty when
	// IsStreamable is true.
	Warnings []Warning
}

// Check walks q and its nested queries and reports constructs that are
// valid but need attention on a stream:
//  1. A bare outer join, whose semantics are not settled (W101)
//  2. An order by without a limit, which never emits on an unbounded input (W102)
//  3. A scalar subquery, which must yield exactly one row (W103)
//  4. NOT IN over a subquery, which behaves surprisingly with nulls (W104)
//  5. Aggregates without group keys, which only emit at end of input (W105)
//
// Check is a pure function with no side effects.
func Check(q *ir.Query) CompatibilityResult {
	v := &checker{warnings: []Warning{}}
	v.query(q, "")
	return CompatibilityResult{
		IsStreamable: len(v.warnings) == 0,
		Warnings:     v.warnings,
	}
}

type checker struct {
	warnings []Warning
}

func (v *checker) addWarning(code, path, format string, args ...any) {
	v.warnings = append(v.warnings, Warning{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func fieldPath(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}

func (v *checker) query(q *ir.Query, path string) {
	if q == nil {
		return
	}
	if q.Scan.Source.Subquery != nil {
		v.query(q.Scan.Source.Subquery, fieldPath(path, "scan.source"))
	}
	for i, j := range q.Scan.Joins {
		p := fieldPath(path, fmt.Sprintf("scan.joins[%d]", i))
		if j.Kind == ir.JoinOuter {
			v.addWarning(WarnOuterJoin, p, "bare outer join with %s; spell out the join kind", j.Source.Name())
		}
		if j.Source.Subquery != nil {
			v.query(j.Source.Subquery, fieldPath(p, "source"))
		}
	}
	if q.Filter != nil {
		v.cond(q.Filter, fieldPath(path, "filter"))
	}

	aggregates := false
	for i, item := range q.Projection.Items {
		p := fieldPath(path, fmt.Sprintf("projection.items[%d]", i))
		if v.expr(item.Expr, p) {
			aggregates = true
		}
	}
	if q.Group != nil && q.Group.Having != nil {
		v.cond(q.Group.Having, fieldPath(path, "group.having"))
	}
	if aggregates && (q.Group == nil || len(q.Group.Keys) == 0) {
		v.addWarning(WarnGlobalAggregate, fieldPath(path, "projection"), "aggregates without group keys emit only at end of input")
	}

	if len(q.Order) > 0 && q.Limit == nil {
		v.addWarning(WarnUnboundedSort, fieldPath(path, "order"), "order by without limit buffers the whole input")
	}
}

// expr reports whether e contains an aggregate call.
func (v *checker) expr(e ir.Expr, path string) bool {
	switch e := e.(type) {
	case ir.Aggregate:
		return true
	case ir.Subquery:
		v.addWarning(WarnScalarSubquery, path, "scalar subquery must yield exactly one row")
		v.query(e.Query, fieldPath(path, "subquery"))
	case ir.Binary:
		l := v.expr(e.Left, path)
		r := v.expr(e.Right, path)
		return l || r
	}
	return false
}

func (v *checker) cond(c ir.BoolExpr, path string) {
	switch c := c.(type) {
	case ir.Comparison:
		v.expr(c.Left, path)
		v.expr(c.Right, path)
	case ir.NullCheck:
		v.expr(c.Expr, path)
	case ir.Exists:
		v.query(c.Query, fieldPath(path, "exists"))
	case ir.In:
		v.expr(c.Expr, path)
		if c.Negated {
			v.addWarning(WarnNotIn, path, "not in over a subquery yields no rows when the subquery returns a null")
		}
		v.query(c.Query, fieldPath(path, "in"))
	case ir.Logical:
		v.cond(c.Left, path)
		v.cond(c.Right, path)
	}
}
