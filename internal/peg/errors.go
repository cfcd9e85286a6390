package peg

import (
	"fmt"
	"strings"

	"github.com/roach88/streamql/internal/lexer"
)

// Structural error codes (S100-S199).
const (
	ErrGroupKeyNotColumn   = "S101" // group key is not a plain or qualified column
	ErrOrderItemNotColumn  = "S102" // order item is not a plain or qualified column
	ErrAggregateStar       = "S103" // '*' operand on an aggregate other than count
	ErrIntegerRange        = "S104" // integer literal outside int64
	ErrDuplicateClause     = "S105" // clause or method given twice
	ErrMissingProjection   = "S106" // query has no select clause
	ErrMethodDependency    = "S107" // method requires another method
	ErrConflictingMethods  = "S108" // methods that cannot be combined
	ErrJoinKeyArity        = "S109" // left and right join key lists differ in length
	ErrUnknownJoinKind     = "S110" // join kind string not recognized
	ErrHavingWithoutGroup  = "S111" // having clause without a group clause
	ErrOffsetWithoutLimit  = "S112" // offset without a limit
	ErrInvalidNumber       = "S113" // numeric literal that cannot be represented
	ErrUnexpectedParseTree = "S199" // transformer met a tree shape it does not know
)

// SyntaxError reports input that does not match the grammar. Pos is the
// furthest position any alternative reached, and Expected lists what would
// have been accepted there.
//
// For text embedded in a string literal (the DataFrame filter argument), Pos
// is relative to the literal's content and Outer is the same position in the
// enclosing query.
type SyntaxError struct {
	Pos      lexer.Pos  `json:"pos"`
	Found    string     `json:"found"`
	Expected []string   `json:"expected,omitempty"`
	Msg      string     `json:"message,omitempty"`
	Outer    *lexer.Pos `json:"outer,omitempty"`
}

func (e *SyntaxError) Error() string {
	detail := e.Msg
	if detail == "" {
		detail = fmt.Sprintf("unexpected %s, expected %s", e.Found, describeExpected(e.Expected))
	}
	msg := fmt.Sprintf("syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, detail)
	if e.Outer != nil {
		msg += fmt.Sprintf(" (query line %d, column %d)", e.Outer.Line, e.Outer.Column)
	}
	return msg
}

func describeExpected(exp []string) string {
	switch len(exp) {
	case 0:
		return "nothing"
	case 1:
		return exp[0]
	}
	return "one of " + strings.Join(exp, ", ")
}

// StructuralError reports a parse tree that matched the grammar but cannot
// be normalized into a query.
type StructuralError struct {
	Code string    `json:"code"`
	Msg  string    `json:"message"`
	Pos  lexer.Pos `json:"pos"`
	Span Span      `json:"span"`
	Text string    `json:"text"`
}

func (e *StructuralError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("structural error [%s] at line %d, column %d: %s", e.Code, e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("structural error [%s] at line %d, column %d: %s: %q", e.Code, e.Pos.Line, e.Pos.Column, e.Msg, e.Text)
}

// Structural builds a StructuralError covering n.
func Structural(src string, n *Node, code, format string, args ...any) *StructuralError {
	return &StructuralError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
		Pos:  n.Pos,
		Span: n.Span,
		Text: n.Source(src),
	}
}

// Limit names for LimitError.
const (
	LimitInputBytes = "input_bytes"
	LimitDepth      = "nesting_depth"
)

// LimitError reports input rejected by a configured bound.
type LimitError struct {
	Limit  string `json:"limit"`
	Max    int    `json:"max"`
	Actual int    `json:"actual"`
}

func (e *LimitError) Error() string {
	if e.Actual > 0 {
		return fmt.Sprintf("limit exceeded: %s is %d, maximum %d", e.Limit, e.Actual, e.Max)
	}
	return fmt.Sprintf("limit exceeded: %s above maximum %d", e.Limit, e.Max)
}
