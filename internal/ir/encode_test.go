package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONShape(t *testing.T) {
	offset := int64(5)
	q := &Query{
		Scan: Scan{
			Source: ScanSource{Stream: "a"},
			Joins: []JoinSpec{{
				Kind:   JoinLeft,
				Source: ScanSource{Stream: "b"},
				On:     []JoinPredicate{{Left: ColumnRef{Qualifier: "a", Name: "x"}, Right: ColumnRef{Qualifier: "b", Name: "y"}}},
			}},
		},
		Filter: NullCheck{Expr: Column{Ref: ColumnRef{Name: "z"}}, Negated: true},
		Group:  &GroupSpec{Keys: []ColumnRef{{Name: "k"}}},
		Projection: Projection{Items: []ProjectionItem{
			{Expr: Column{Ref: ColumnRef{Name: "k"}}},
			{Expr: Aggregate{Func: AggCount, Star: true}, Alias: "n"},
		}},
		Order: []OrderItem{{Column: ColumnRef{Name: "n"}, Direction: Desc, Nulls: NullsFirst}},
		Limit: &LimitSpec{Limit: 10, Offset: &offset},
	}

	got, err := CanonicalJSON(q)
	require.NoError(t, err)
	want := `{"filter":{"null_check":{"expr":{"column":{"name":"z"}},"negated":true}},` +
		`"group":{"keys":[{"name":"k"}]},` +
		`"limit":{"limit":10,"offset":5},` +
		`"order":[{"column":{"name":"n"},"direction":"desc","nulls":"first"}],` +
		`"projection":{"distinct":false,"items":[` +
		`{"expr":{"column":{"name":"k"}},"kind":"column"},` +
		`{"alias":"n","expr":{"aggregate":{"func":"count","star":true}},"kind":"aggregate"}],"star":false},` +
		`"scan":{"joins":[{"kind":"left","on":[{"left":{"name":"x","qualifier":"a"},"right":{"name":"y","qualifier":"b"}}],"source":{"stream":"b"}}],` +
		`"source":{"stream":"a"}}}`
	assert.Equal(t, want, string(got))
}

func TestEncodeNestedBoolAndArith(t *testing.T) {
	q := &Query{
		Scan: Scan{Source: ScanSource{Stream: "t"}},
		Filter: Logical{
			Left: Comparison{
				Left:  Binary{Left: Column{Ref: ColumnRef{Name: "a"}}, Op: OpAdd, Right: Literal{Value: Int(1)}},
				Op:    OpEq,
				Right: Literal{Value: String("x")},
			},
			Op:    OpOr,
			Right: BoolLiteral{Value: true},
		},
		Projection: Projection{Star: true},
	}

	doc, err := Encode(q)
	require.NoError(t, err)
	logical := doc["filter"].(map[string]any)["logical"].(map[string]any)
	assert.Equal(t, "or", logical["op"])
	assert.Equal(t, map[string]any{"bool": true}, logical["right"])

	cmp := logical["left"].(map[string]any)["compare"].(map[string]any)
	assert.Equal(t, map[string]any{"literal": map[string]any{"string": "x"}}, cmp["right"])
}

func TestEncodeRejectsNilExpression(t *testing.T) {
	q := &Query{
		Scan:       Scan{Source: ScanSource{Stream: "t"}},
		Projection: Projection{Items: []ProjectionItem{{}}},
	}
	_, err := Encode(q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projection[0]")
}

func TestProjectionItemKind(t *testing.T) {
	assert.Equal(t, ItemColumn, ProjectionItem{Expr: Column{}}.Kind())
	assert.Equal(t, ItemAggregate, ProjectionItem{Expr: Aggregate{}}.Kind())
	assert.Equal(t, ItemValue, ProjectionItem{Expr: Literal{Value: String("s")}}.Kind())
	assert.Equal(t, ItemSubquery, ProjectionItem{Expr: Subquery{}}.Kind())
	assert.Equal(t, ItemArithmetic, ProjectionItem{Expr: Binary{}}.Kind())
}
