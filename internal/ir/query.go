package ir

// Query is the normalized form of a query in any dialect.
type Query struct {
	Scan       Scan
	Filter     BoolExpr // nil when absent
	Group      *GroupSpec
	Projection Projection
	Order      []OrderItem
	Limit      *LimitSpec
}

// Scan is the source of a query plus the joins chained onto it.
type Scan struct {
	Source ScanSource
	Joins  []JoinSpec
}

// ScanSource is a named stream or a derived source. Exactly one of Stream
// and Subquery is set.
type ScanSource struct {
	Stream   string
	Subquery *Query
	Alias    string
}

// Name returns the alias if present, else the stream name.
func (s ScanSource) Name() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Stream
}

// JoinKind is the kind of a join.
type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	// JoinOuter is a bare OUTER join. Its semantics are not settled, so it
	// stays distinct from JoinLeft.
	JoinOuter JoinKind = "outer"
)

// JoinSpec joins a source to the scan on a conjunction of equalities.
type JoinSpec struct {
	Kind   JoinKind
	Source ScanSource
	On     []JoinPredicate
}

// JoinPredicate is Left = Right between two qualified columns.
type JoinPredicate struct {
	Left  ColumnRef
	Right ColumnRef
}

// ColumnRef names a column, optionally qualified by a source alias.
// Unqualified names are resolved downstream.
type ColumnRef struct {
	Qualifier string
	Name      string
}

func (c ColumnRef) String() string {
	if c.Qualifier == "" {
		return c.Name
	}
	return c.Qualifier + "." + c.Name
}

// GroupSpec groups rows by Keys. Having may reference aggregates.
type GroupSpec struct {
	Keys   []ColumnRef
	Having BoolExpr
}

// Projection is either Star or a non-empty list of items.
type Projection struct {
	Star     bool
	Distinct bool
	Items    []ProjectionItem
}

// ProjectionItem is an output expression with an optional alias.
type ProjectionItem struct {
	Expr  Expr
	Alias string
}

// ItemKind classifies a projection item.
type ItemKind string

const (
	ItemColumn     ItemKind = "column"
	ItemAggregate  ItemKind = "aggregate"
	ItemArithmetic ItemKind = "arithmetic"
	ItemValue      ItemKind = "value"
	ItemSubquery   ItemKind = "subquery"
)

// Kind reports what sort of expression the item projects.
func (p ProjectionItem) Kind() ItemKind {
	switch p.Expr.(type) {
	case Column:
		return ItemColumn
	case Aggregate:
		return ItemAggregate
	case Literal:
		return ItemValue
	case Subquery:
		return ItemSubquery
	}
	return ItemArithmetic
}

// Direction is a sort direction. Ascending is the default.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// NullsOrder places nulls in a sort. The zero value leaves placement to the
// execution engine.
type NullsOrder string

const (
	NullsUnspecified NullsOrder = ""
	NullsFirst       NullsOrder = "first"
	NullsLast        NullsOrder = "last"
)

// OrderItem sorts by one column.
type OrderItem struct {
	Column    ColumnRef
	Direction Direction
	Nulls     NullsOrder
}

// LimitSpec caps the number of rows, optionally skipping Offset first.
type LimitSpec struct {
	Limit  int64
	Offset *int64
}
