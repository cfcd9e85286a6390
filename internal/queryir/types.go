package queryir

import "github.com/roach88/streamql/internal/ir"

// Operator is one step of a Plan.
//
// This is a sealed interface - only types in this package implement it.
type Operator interface {
	operatorNode() // Marker method - seals interface to this package
}

// Plan is an ordered operator chain. Ops[0] is always a Scan.
type Plan struct {
	Ops []Operator
}

// Scan reads a named stream, or the output of Input for a derived table.
type Scan struct {
	Stream string
	Input  *Plan
	Alias  string
}

func (Scan) operatorNode() {}

// Name is the alias, or the stream name when there is none.
func (s Scan) Name() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Stream
}

// Join combines the rows so far with Source on a conjunction of equalities.
type Join struct {
	Kind   ir.JoinKind
	Source Scan
	On     []ir.JoinPredicate
}

func (Join) operatorNode() {}

// Filter keeps the rows for which Predicate holds. Subplans are the plans
// of subqueries inside Predicate, in the order they appear.
type Filter struct {
	Predicate ir.BoolExpr
	Subplans  []*Plan
}

func (Filter) operatorNode() {}

// Aggregate groups rows by Keys and computes Calls per group. Without keys
// the whole input is one group. Having filters the groups.
type Aggregate struct {
	Keys     []ir.ColumnRef
	Calls    []ir.Aggregate
	Having   ir.BoolExpr
	Subplans []*Plan
}

func (Aggregate) operatorNode() {}

// Project computes the output columns. Star passes every column through.
type Project struct {
	Star     bool
	Items    []ir.ProjectionItem
	Subplans []*Plan
}

func (Project) operatorNode() {}

// Distinct removes duplicate rows.
type Distinct struct{}

func (Distinct) operatorNode() {}

// Sort orders rows.
type Sort struct {
	Items []ir.OrderItem
}

func (Sort) operatorNode() {}

// Limit skips Offset rows and passes at most Count.
type Limit struct {
	Count  int64
	Offset int64
}

func (Limit) operatorNode() {}
