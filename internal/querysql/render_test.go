package querysql

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/testutil"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		q    *ir.Query
		want string
	}{
		{
			name: "star",
			q:    testutil.Star("t"),
			want: "select * from t",
		},
		{
			name: "right operand keeps its parentheses",
			q: &ir.Query{
				Scan:       testutil.Scan("t", ""),
				Projection: testutil.Items(testutil.Bin(testutil.Bin(testutil.Col("a"), ir.OpAdd, testutil.Col("b")), ir.OpMul, testutil.Bin(testutil.Col("c"), ir.OpSub, testutil.Int(-1)))),
			},
			want: "select a + b * (c - -1) from t",
		},
		{
			name: "logical chain",
			q: &ir.Query{
				Scan:       testutil.Scan("t", ""),
				Filter:     testutil.And(testutil.Cmp(testutil.Col("a"), ir.OpEq, testutil.Int(1)), testutil.Or(ir.BoolLiteral{Value: true}, ir.NullCheck{Expr: testutil.Col("b")})),
				Projection: ir.Projection{Star: true},
			},
			want: "select * from t where a = 1 and (true or b is null)",
		},
		{
			name: "every clause",
			q: &ir.Query{
				Scan: ir.Scan{
					Source: ir.ScanSource{Stream: "orders", Alias: "o"},
					Joins: []ir.JoinSpec{
						{Kind: ir.JoinInner, Source: ir.ScanSource{Stream: "c"}, On: []ir.JoinPredicate{{Left: testutil.Ref("o.cid"), Right: testutil.Ref("c.id")}}},
						{Kind: ir.JoinOuter, Source: ir.ScanSource{Stream: "d"}, On: []ir.JoinPredicate{
							{Left: testutil.Ref("o.a"), Right: testutil.Ref("d.a")},
							{Left: testutil.Ref("o.b"), Right: testutil.Ref("d.b")},
						}},
					},
				},
				Filter: ir.In{Expr: testutil.Col("x"), Negated: true, Query: &ir.Query{Scan: testutil.Scan("bad", ""), Projection: testutil.Items(testutil.Col("x"))}},
				Group: &ir.GroupSpec{
					Keys:   []ir.ColumnRef{testutil.Ref("o.region"), testutil.Ref("c.name")},
					Having: testutil.Cmp(testutil.Agg(ir.AggAvg, "o.amount"), ir.OpGe, testutil.Dec("2.50")),
				},
				Projection: ir.Projection{Distinct: true, Items: []ir.ProjectionItem{
					{Expr: testutil.QCol("o", "region")},
					{Expr: testutil.Agg(ir.AggCount, "*"), Alias: "n"},
					{Expr: testutil.Str("tag"), Alias: "kind"},
				}},
				Order: []ir.OrderItem{
					{Column: testutil.Ref("n"), Direction: ir.Desc, Nulls: ir.NullsLast},
					{Column: testutil.Ref("o.region"), Direction: ir.Asc},
				},
				Limit: &ir.LimitSpec{Limit: 10, Offset: testutil.Offset(20)},
			},
			want: "select distinct o.region, count(*) as n, 'tag' as kind from orders as o" +
				" join c on o.cid = c.id outer join d on o.a = d.a and o.b = d.b" +
				" where x not in (select x from bad)" +
				" group by o.region, c.name having avg(o.amount) >= 2.50" +
				" order by n desc nulls last, o.region limit 10 offset 20",
		},
		{
			name: "integral decimal stays decimal",
			q: &ir.Query{
				Scan:       testutil.Scan("t", ""),
				Filter:     ir.Exists{Negated: true, Query: testutil.Star("u")},
				Projection: testutil.Items(testutil.Dec("2.0"), testutil.Dec("-0.5")),
			},
			want: "select 2.0, -0.5 from t where not exists (select * from u)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderUpperPretty(t *testing.T) {
	q := &ir.Query{
		Scan:       ir.Scan{Source: ir.ScanSource{Subquery: testutil.Star("t"), Alias: "s"}},
		Filter:     testutil.Cmp(testutil.Col("a"), ir.OpGt, testutil.Int(1)),
		Projection: testutil.Items(testutil.Agg(ir.AggMax, "a")),
		Limit:      &ir.LimitSpec{Limit: 1},
	}
	got, err := Renderer{Upper: true, Pretty: true}.Render(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT MAX(a)\nFROM (\n  SELECT *\n  FROM t) AS s\nWHERE a > 1\nLIMIT 1", got)

	back, err := compiler.Compile(compiler.SQL, got)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(q, back))
}

func TestRoundTrip(t *testing.T) {
	inputs := []struct {
		d    compiler.Dialect
		text string
	}{
		{compiler.SQL, "SELECT Max(x) FROM t"},
		{compiler.SQL, "select a + b * c, (select count(*) from u) total from t where a = 1 or c = 2 and d != 3"},
		{compiler.SQL, "select * from (select x from t) as s left outer join u on s.x == u.x where exists (select * from v where v.k = 'a b')"},
		{compiler.SQL, "select a from t where a * (b + c) > 2.25 order by a nulls first limit 5 offset 0"},
		{compiler.Stream, "from s in input where s.v is not null group s.k { sum(s.v) > 10 } select s.k, sum(s.v) order s.k desc"},
		{compiler.Stream, "from input: Stream select distinct *"},
		{compiler.DataFrame, `orders.join(users as u, [uid], [id], "outer").filter("amount > 10 || (u.vip = true && amount > 1)").select(orders.id)`},
		{compiler.DataFrame, "sales.groupby(region).agg(sum(amount) as total).limit(3).offset(1)"},
	}

	for _, in := range inputs {
		t.Run(in.text, func(t *testing.T) {
			q, err := compiler.Compile(in.d, in.text)
			require.NoError(t, err)

			text, err := Render(q)
			require.NoError(t, err)
			back, err := compiler.Compile(compiler.SQL, text)
			require.NoError(t, err, text)
			if diff := cmp.Diff(q, back); diff != "" {
				t.Errorf("round trip through %q changed the AST (-want +got):\n%s", text, diff)
			}

			again, err := Render(back)
			require.NoError(t, err)
			assert.Equal(t, text, again)
		})
	}
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(nil)
	assert.Error(t, err)

	_, err = Render(&ir.Query{Projection: ir.Projection{Star: true}})
	assert.ErrorContains(t, err, "neither stream nor subquery")

	_, err = Render(&ir.Query{Scan: testutil.Scan("t", "")})
	assert.ErrorContains(t, err, "projection has no items")

	q := testutil.Star("t")
	q.Scan.Joins = []ir.JoinSpec{{Kind: "cross", Source: ir.ScanSource{Stream: "u"}}}
	_, err = Render(q)
	assert.ErrorContains(t, err, "unsupported join kind")
}

func TestRenderFragments(t *testing.T) {
	e, err := Renderer{}.Expr(testutil.Bin(testutil.Agg(ir.AggSum, "v"), ir.OpDiv, testutil.Int(2)))
	require.NoError(t, err)
	assert.Equal(t, "sum(v) / 2", e)

	c, err := Renderer{Upper: true}.Cond(ir.NullCheck{Expr: testutil.Col("a"), Negated: true})
	require.NoError(t, err)
	assert.Equal(t, "a IS NOT NULL", c)

	_, err = Renderer{}.Cond(nil)
	assert.Error(t, err)
}
