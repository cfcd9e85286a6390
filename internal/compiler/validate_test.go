package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/testutil"
)

// =============================================================================
// Valid queries
// =============================================================================

func TestValidateParsedQueries(t *testing.T) {
	texts := []struct {
		d    Dialect
		text string
	}{
		{SQL, "select * from t"},
		{SQL, "select a, count(*) from t as x left join u on x.id = u.id group by a having count(*) > 1 order by a desc nulls first limit 3 offset 1"},
		{SQL, "select (select max(v) from w) from t where exists (select * from u) and a not in (select b from v)"},
		{Stream, "from s in input where s.v is null select s.v"},
		{DataFrame, `a.join(b, [x], [y], "outer").select(a.x)`},
	}
	for _, tt := range texts {
		q, err := Compile(tt.d, tt.text)
		require.NoError(t, err, tt.text)
		assert.Empty(t, Validate(q), tt.text)
	}
}

// =============================================================================
// Invalid queries
// =============================================================================

func TestValidateNil(t *testing.T) {
	errs := Validate(nil)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNilQuery, errs[0].Code)
}

func TestValidateSource(t *testing.T) {
	q := &ir.Query{Projection: ir.Projection{Star: true}}
	errs := Validate(q)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidSource, errs[0].Code)
	assert.Equal(t, "scan.source", errs[0].Field)

	q.Scan.Source = ir.ScanSource{Stream: "t", Subquery: testutil.Star("u")}
	errs = Validate(q)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "both")
}

func TestValidateJoin(t *testing.T) {
	q := testutil.Star("a")
	q.Scan.Joins = []ir.JoinSpec{
		{Kind: "cross", Source: ir.ScanSource{Stream: "b"}},
		{Kind: ir.JoinInner, Source: ir.ScanSource{Stream: "c"}, On: []ir.JoinPredicate{{Left: testutil.Ref("x"), Right: testutil.Ref("c.y")}}},
	}

	errs := Validate(q)
	require.Len(t, errs, 3)
	assert.Equal(t, ErrInvalidJoinKind, errs[0].Code)
	assert.Equal(t, "scan.joins[0].kind", errs[0].Field)
	assert.Equal(t, ErrJoinNoPredicate, errs[1].Code)
	assert.Equal(t, ErrJoinUnqualified, errs[2].Code)
	assert.Equal(t, "scan.joins[1].on[0].left", errs[2].Field)
}

func TestValidateGroupAndProjection(t *testing.T) {
	q := &ir.Query{
		Scan:       testutil.Scan("t", ""),
		Group:      &ir.GroupSpec{},
		Projection: ir.Projection{Star: true, Items: testutil.Items(testutil.Col("a")).Items},
	}

	errs := Validate(q)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrEmptyGroup, errs[0].Code)
	assert.Equal(t, ErrStarWithItems, errs[1].Code)

	q.Group = nil
	q.Projection = ir.Projection{}
	errs = Validate(q)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrEmptyProjection, errs[0].Code)
}

func TestValidateExpressions(t *testing.T) {
	q := &ir.Query{
		Scan: testutil.Scan("t", ""),
		Filter: ir.Logical{
			Left:  testutil.Cmp(testutil.Col("a"), "~", testutil.Int(1)),
			Op:    "xor",
			Right: ir.In{Expr: testutil.Col("b"), Query: nil},
		},
		Projection: testutil.Items(
			testutil.Agg(ir.AggSum, "*"),
			ir.Aggregate{Func: "median", Column: testutil.Ref("v")},
			testutil.Bin(testutil.Col(""), "%", ir.Literal{}),
		),
	}

	codes := map[string]string{}
	for _, e := range Validate(q) {
		codes[e.Field] = e.Code
	}
	assert.Equal(t, map[string]string{
		"filter.left.op":                 ErrUnknownOperator,
		"filter.op":                      ErrUnknownOperator,
		"filter.right.subquery.query":    ErrNilQuery,
		"projection.items[0]":            ErrAggregateStar,
		"projection.items[1]":            ErrUnknownOperator,
		"projection.items[2].op":         ErrUnknownOperator,
		"projection.items[2].left":       ErrEmptyColumnName,
		"projection.items[2].right":      ErrMissingExpression,
	}, codes)
}

func TestValidateOrderAndLimit(t *testing.T) {
	q := testutil.Star("t")
	q.Order = []ir.OrderItem{{Column: testutil.Ref("a"), Direction: "up", Nulls: "middle"}}
	q.Limit = &ir.LimitSpec{Limit: -1, Offset: testutil.Offset(-2)}

	errs := Validate(q)
	require.Len(t, errs, 4)
	assert.Equal(t, "order[0].direction", errs[0].Field)
	assert.Equal(t, "order[0].nulls", errs[1].Field)
	assert.Equal(t, ErrNegativeLimit, errs[2].Code)
	assert.Equal(t, "limit.offset", errs[3].Field)
}

func TestValidateNestedPaths(t *testing.T) {
	inner := &ir.Query{Scan: testutil.Scan("u", ""), Projection: ir.Projection{}}
	q := &ir.Query{
		Scan:       ir.Scan{Source: ir.ScanSource{Subquery: inner, Alias: "s"}},
		Projection: ir.Projection{Star: true},
	}

	errs := Validate(q)
	require.Len(t, errs, 1)
	assert.Equal(t, "scan.source.subquery.projection", errs[0].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "group.keys", Message: "group requires at least one key", Code: ErrEmptyGroup}
	assert.Equal(t, "[E110] group.keys: group requires at least one key", err.Error())
}
