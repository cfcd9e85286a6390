package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/streamql/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrNilQuery = "E100" // query or nested query is nil

	// Scan errors (E101-E104)
	ErrInvalidSource   = "E101" // source needs exactly one of stream or subquery
	ErrInvalidJoinKind = "E102" // join kind not inner, left or outer
	ErrJoinNoPredicate = "E103" // join without an equality predicate
	ErrJoinUnqualified = "E104" // join predicate column lacks a qualifier

	// Clause errors (E110-E119)
	ErrEmptyGroup        = "E110" // group without keys
	ErrEmptyProjection   = "E111" // neither star nor items
	ErrStarWithItems     = "E112" // star and items both set
	ErrAggregateStar     = "E113" // '*' on an aggregate other than count
	ErrUnknownOperator   = "E114" // operator, function or enum value not in the language
	ErrNegativeLimit     = "E115" // limit or offset below zero
	ErrEmptyColumnName   = "E116" // column reference without a name
	ErrMissingExpression = "E117" // nil expression or condition
)

// ValidationError describes one problem in a hand-built query.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a query that did not come from a dialect, such as one
// built in code or decoded from elsewhere, against the invariants every
// parsed query satisfies. It returns all errors found (does not fail-fast).
func Validate(q *ir.Query) []ValidationError {
	v := &validator{}
	v.query("", q)
	return v.errs
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func join(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}

func (v *validator) query(path string, q *ir.Query) {
	if q == nil {
		v.add(join(path, "query"), ErrNilQuery, "query is nil")
		return
	}

	v.source(join(path, "scan.source"), q.Scan.Source)
	for i, j := range q.Scan.Joins {
		jp := join(path, fmt.Sprintf("scan.joins[%d]", i))
		switch j.Kind {
		case ir.JoinInner, ir.JoinLeft, ir.JoinOuter:
		default:
			v.add(jp+".kind", ErrInvalidJoinKind, "invalid join kind %q", j.Kind)
		}
		v.source(jp+".source", j.Source)
		if len(j.On) == 0 {
			v.add(jp+".on", ErrJoinNoPredicate, "join requires at least one equality predicate")
		}
		for k, pred := range j.On {
			sides := [2]ir.ColumnRef{pred.Left, pred.Right}
			for s, c := range sides {
				if c.Qualifier == "" || c.Name == "" {
					v.add(fmt.Sprintf("%s.on[%d].%s", jp, k, [2]string{"left", "right"}[s]), ErrJoinUnqualified,
						"join column %q must be qualified", c.String())
				}
			}
		}
	}

	if q.Filter != nil {
		v.cond(join(path, "filter"), q.Filter)
	}

	if q.Group != nil {
		if len(q.Group.Keys) == 0 {
			v.add(join(path, "group.keys"), ErrEmptyGroup, "group requires at least one key")
		}
		for i, k := range q.Group.Keys {
			v.column(join(path, fmt.Sprintf("group.keys[%d]", i)), k)
		}
		if q.Group.Having != nil {
			v.cond(join(path, "group.having"), q.Group.Having)
		}
	}

	proj := q.Projection
	switch {
	case proj.Star && len(proj.Items) > 0:
		v.add(join(path, "projection"), ErrStarWithItems, "projection cannot be both * and a list of items")
	case !proj.Star && len(proj.Items) == 0:
		v.add(join(path, "projection"), ErrEmptyProjection, "projection requires * or at least one item")
	}
	for i, it := range proj.Items {
		v.expr(join(path, fmt.Sprintf("projection.items[%d]", i)), it.Expr)
	}

	for i, o := range q.Order {
		op := join(path, fmt.Sprintf("order[%d]", i))
		v.column(op+".column", o.Column)
		if o.Direction != ir.Asc && o.Direction != ir.Desc {
			v.add(op+".direction", ErrUnknownOperator, "invalid direction %q", o.Direction)
		}
		switch o.Nulls {
		case ir.NullsUnspecified, ir.NullsFirst, ir.NullsLast:
		default:
			v.add(op+".nulls", ErrUnknownOperator, "invalid nulls placement %q", o.Nulls)
		}
	}

	if l := q.Limit; l != nil {
		if l.Limit < 0 {
			v.add(join(path, "limit.limit"), ErrNegativeLimit, "limit must be non-negative, got %d", l.Limit)
		}
		if l.Offset != nil && *l.Offset < 0 {
			v.add(join(path, "limit.offset"), ErrNegativeLimit, "offset must be non-negative, got %d", *l.Offset)
		}
	}
}

func (v *validator) source(path string, s ir.ScanSource) {
	hasStream := strings.TrimSpace(s.Stream) != ""
	switch {
	case hasStream && s.Subquery != nil:
		v.add(path, ErrInvalidSource, "source has both a stream and a subquery")
	case !hasStream && s.Subquery == nil:
		v.add(path, ErrInvalidSource, "source has neither a stream nor a subquery")
	case s.Subquery != nil:
		v.query(path+".subquery", s.Subquery)
	}
}

func (v *validator) column(path string, c ir.ColumnRef) {
	if c.Name == "" {
		v.add(path, ErrEmptyColumnName, "column name is empty")
	}
}

func (v *validator) expr(path string, e ir.Expr) {
	switch e := e.(type) {
	case nil:
		v.add(path, ErrMissingExpression, "expression is nil")
	case ir.Column:
		v.column(path, e.Ref)
	case ir.Literal:
		if e.Value == nil {
			v.add(path, ErrMissingExpression, "literal has no value")
		}
	case ir.Aggregate:
		if !isAggFunc(e.Func) {
			v.add(path, ErrUnknownOperator, "unknown aggregate function %q", e.Func)
		}
		if e.Star && e.Func != ir.AggCount {
			v.add(path, ErrAggregateStar, "%s does not accept '*'; only count does", e.Func)
		}
		if !e.Star {
			v.column(path+".column", e.Column)
		}
	case ir.Subquery:
		v.query(path+".subquery", e.Query)
	case ir.Binary:
		switch e.Op {
		case ir.OpPow, ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		default:
			v.add(path+".op", ErrUnknownOperator, "unknown arithmetic operator %q", e.Op)
		}
		v.expr(path+".left", e.Left)
		v.expr(path+".right", e.Right)
	default:
		v.add(path, ErrMissingExpression, "unsupported expression type %T", e)
	}
}

func (v *validator) cond(path string, b ir.BoolExpr) {
	switch b := b.(type) {
	case nil:
		v.add(path, ErrMissingExpression, "condition is nil")
	case ir.Comparison:
		switch b.Op {
		case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		default:
			v.add(path+".op", ErrUnknownOperator, "unknown comparison operator %q", b.Op)
		}
		v.expr(path+".left", b.Left)
		v.expr(path+".right", b.Right)
	case ir.NullCheck:
		v.expr(path+".expr", b.Expr)
	case ir.Exists:
		v.query(path+".subquery", b.Query)
	case ir.In:
		v.expr(path+".expr", b.Expr)
		v.query(path+".subquery", b.Query)
	case ir.BoolLiteral:
	case ir.Logical:
		if b.Op != ir.OpAnd && b.Op != ir.OpOr {
			v.add(path+".op", ErrUnknownOperator, "unknown logical operator %q", b.Op)
		}
		v.cond(path+".left", b.Left)
		v.cond(path+".right", b.Right)
	default:
		v.add(path, ErrMissingExpression, "unsupported condition type %T", b)
	}
}

func isAggFunc(f ir.AggFunc) bool {
	for _, known := range ir.AggFuncs {
		if f == known {
			return true
		}
	}
	return false
}
