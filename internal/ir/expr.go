package ir

import "github.com/shopspring/decimal"

// Value is a literal. Sealed: only Bool, Int, Decimal and String implement
// it. There is no null literal.
type Value interface {
	value()
}

// Bool is a boolean literal.
type Bool bool

func (Bool) value() {}

// Int is an integer literal.
type Int int64

func (Int) value() {}

// Decimal is a numeric literal with a fractional part. It is exact; the
// AST never holds floats.
type Decimal struct {
	D decimal.Decimal
}

func (Decimal) value() {}

// NewDecimal parses s, which must be a plain decimal numeral.
func NewDecimal(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{D: d}, nil
}

// MustDecimal is like NewDecimal but panics on error.
// Use only in tests or with constant input.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String is a string literal.
type String string

func (String) value() {}

// Expr is a scalar expression. Sealed: Column, Literal, Aggregate, Subquery
// and Binary implement it.
type Expr interface {
	expr()
}

// Column references a column.
type Column struct {
	Ref ColumnRef
}

func (Column) expr() {}

// Literal wraps a Value.
type Literal struct {
	Value Value
}

func (Literal) expr() {}

// AggFunc is an aggregate function name.
type AggFunc string

const (
	AggMax   AggFunc = "max"
	AggMin   AggFunc = "min"
	AggAvg   AggFunc = "avg"
	AggSum   AggFunc = "sum"
	AggCount AggFunc = "count"
)

// AggFuncs lists the aggregate functions in a fixed order.
var AggFuncs = []AggFunc{AggMax, AggMin, AggAvg, AggSum, AggCount}

// Aggregate is an aggregate call. Star is only valid with AggCount; when
// Star is set Column is zero.
type Aggregate struct {
	Func   AggFunc
	Star   bool
	Column ColumnRef
}

func (Aggregate) expr() {}

// Subquery is a nested query used as a scalar.
type Subquery struct {
	Query *Query
}

func (Subquery) expr() {}

// ArithOp is an arithmetic operator. All operators share one precedence
// level and associate to the left.
type ArithOp string

const (
	OpPow ArithOp = "^"
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
)

// Binary applies Op to Left and Right. A chain a op b op c is stored as
// Binary{Binary{a, op, b}, op, c}.
type Binary struct {
	Left  Expr
	Op    ArithOp
	Right Expr
}

func (Binary) expr() {}

// BoolExpr is a condition or a chain of conditions. Sealed: Comparison,
// NullCheck, Exists, In, BoolLiteral and Logical implement it.
type BoolExpr interface {
	boolExpr()
}

// CompareOp is a comparison operator. '==' is normalized to OpEq.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Comparison compares two expressions.
type Comparison struct {
	Left  Expr
	Op    CompareOp
	Right Expr
}

func (Comparison) boolExpr() {}

// NullCheck is "Expr is null", or "Expr is not null" when Negated.
type NullCheck struct {
	Expr    Expr
	Negated bool
}

func (NullCheck) boolExpr() {}

// Exists tests whether Query yields any row.
type Exists struct {
	Query   *Query
	Negated bool
}

func (Exists) boolExpr() {}

// In tests membership of Expr in the rows of Query. The operand is always a
// subquery; literal lists are not part of the language.
type In struct {
	Expr    Expr
	Query   *Query
	Negated bool
}

func (In) boolExpr() {}

// BoolLiteral is a bare true or false condition.
type BoolLiteral struct {
	Value bool
}

func (BoolLiteral) boolExpr() {}

// LogicalOp joins two conditions. AND and OR share one precedence level.
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
)

// Logical combines Left and Right. Chains fold to the left like Binary.
type Logical struct {
	Left  BoolExpr
	Op    LogicalOp
	Right BoolExpr
}

func (Logical) boolExpr() {}
