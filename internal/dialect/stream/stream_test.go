package stream

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/peg"
	"github.com/roach88/streamql/internal/testutil"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *ir.Query
	}{
		{
			name: "typed stream",
			src:  "from input: Stream select *",
			want: testutil.Star("input"),
		},
		{
			name: "typed stream with alias",
			src:  "FROM input: Stream AS i SELECT i.x",
			want: &ir.Query{Scan: testutil.Scan("input", "i"), Projection: testutil.Items(testutil.QCol("i", "x"))},
		},
		{
			name: "alias in stream",
			src:  "from s in input where s.v > 3 select s.v",
			want: &ir.Query{
				Scan:       testutil.Scan("input", "s"),
				Filter:     testutil.Cmp(testutil.QCol("s", "v"), ir.OpGt, testutil.Int(3)),
				Projection: testutil.Items(testutil.QCol("s", "v")),
			},
		},
		{
			name: "clauses in any order",
			src: "from clicks as c\n" +
				"select c.page, count(*) as hits\n" +
				"limit 5\n" +
				"where c.user is not null\n" +
				"order hits desc\n" +
				"group c.page { count(*) > 10 }",
			want: &ir.Query{
				Scan:   testutil.Scan("clicks", "c"),
				Filter: ir.NullCheck{Expr: testutil.QCol("c", "user"), Negated: true},
				Group: &ir.GroupSpec{
					Keys:   []ir.ColumnRef{testutil.Ref("c.page")},
					Having: testutil.Cmp(testutil.Agg(ir.AggCount, "*"), ir.OpGt, testutil.Int(10)),
				},
				Projection: ir.Projection{Items: []ir.ProjectionItem{
					{Expr: testutil.QCol("c", "page")},
					{Expr: testutil.Agg(ir.AggCount, "*"), Alias: "hits"},
				}},
				Order: []ir.OrderItem{{Column: testutil.Ref("hits"), Direction: ir.Desc}},
				Limit: &ir.LimitSpec{Limit: 5},
			},
		},
		{
			name: "group by with having keyword",
			src:  "from t group by k having sum(v) >= 2 select distinct k",
			want: &ir.Query{
				Scan: testutil.Scan("t", ""),
				Group: &ir.GroupSpec{
					Keys:   []ir.ColumnRef{testutil.Ref("k")},
					Having: testutil.Cmp(testutil.Agg(ir.AggSum, "v"), ir.OpGe, testutil.Int(2)),
				},
				Projection: ir.Projection{Distinct: true, Items: []ir.ProjectionItem{{Expr: testutil.Col("k")}}},
			},
		},
		{
			name: "join and derived source",
			src:  "from (from raw select id, v) as r left join dims d on r.id == d.id select r.v, d.name",
			want: &ir.Query{
				Scan: ir.Scan{
					Source: ir.ScanSource{
						Subquery: &ir.Query{Scan: testutil.Scan("raw", ""), Projection: testutil.Items(testutil.Col("id"), testutil.Col("v"))},
						Alias:    "r",
					},
					Joins: []ir.JoinSpec{{
						Kind:   ir.JoinLeft,
						Source: ir.ScanSource{Stream: "dims", Alias: "d"},
						On:     []ir.JoinPredicate{{Left: testutil.Ref("r.id"), Right: testutil.Ref("d.id")}},
					}},
				},
				Projection: testutil.Items(testutil.QCol("r", "v"), testutil.QCol("d", "name")),
			},
		},
		{
			name: "in subquery uses the streaming form",
			src:  "from t where id in (from allow select id) select *",
			want: &ir.Query{
				Scan:       testutil.Scan("t", ""),
				Filter:     ir.In{Expr: testutil.Col("id"), Query: &ir.Query{Scan: testutil.Scan("allow", ""), Projection: testutil.Items(testutil.Col("id"))}},
				Projection: ir.Projection{Star: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compile(tt.src, peg.Config{})
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClauseOrderDoesNotMatter(t *testing.T) {
	a, err := Compile("from t where v > 1 select v order v limit 2", peg.Config{})
	require.NoError(t, err)
	b, err := Compile("from t limit 2 order v select v where v > 1", peg.Config{})
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b))
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"missing select", "from t where v > 1", peg.ErrMissingProjection},
		{"duplicate where", "from t where v > 1 select v where v < 9", peg.ErrDuplicateClause},
		{"aggregate group key", "from t group max(v) select v", peg.ErrGroupKeyNotColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src, peg.Config{})
			var se *peg.StructuralError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.code, se.Code)
		})
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		offset   int
		expected string
	}{
		{"missing source", "from select *", 5, "identifier"},
		{"unclosed having", "from t group k { count(*) > 1 select k", 30, `"}"`},
		{"unknown clause", "from t select * having x > 1", 16, "end of input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src, peg.Config{})
			var se *peg.SyntaxError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, tt.offset, se.Pos.Offset, se.Error())
			assert.Contains(t, se.Expected, tt.expected)
		})
	}
}
