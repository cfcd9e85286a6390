package peg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamql/internal/lexer"
)

// toy grammar:
//
//	item := "(" item ")" | "-"? NUMBER | "let" IDENT
var toy = Grammar{
	Reserved: map[string]bool{"let": true},
	Start:    toyItem,
}

func toyItem(p *Parser) *Node {
	return p.Nest(func() *Node {
		return p.Choice(
			func() *Node {
				return p.Seq("paren", func() *Node { return p.Symbol("(") }, func() *Node { return toyItem(p) }, func() *Node { return p.Symbol(")") })
			},
			p.Number,
			func() *Node { return p.Seq("let", func() *Node { return p.Keyword("let") }, p.Ident) },
		)
	})
}

func TestRunAcceptsNestedInput(t *testing.T) {
	n, err := Run("((LET x))", Config{}, toy)
	require.NoError(t, err)
	assert.Equal(t, Rule("paren"), n.Rule)
	assert.Equal(t, Span{Start: 0, End: 9}, n.Span)

	inner := n.Kids[1].Kids[1]
	require.Equal(t, Rule("let"), inner.Rule)
	assert.True(t, inner.Has("let"))
	assert.Equal(t, "x", inner.Kids[1].Text())
}

func TestRunSignedNumber(t *testing.T) {
	n, err := Run("-12.5", Config{}, toy)
	require.NoError(t, err)
	assert.True(t, n.IsLeaf())
	assert.Equal(t, "-12.5", n.Text())

	// A separated sign is not part of the literal.
	_, err = Run("- 12", Config{}, toy)
	require.Error(t, err)
}

func TestRunReportsFurthestFailure(t *testing.T) {
	_, err := Run("(let 7)", Config{}, toy)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, lexer.Pos{Offset: 5, Line: 1, Column: 6}, se.Pos)
	assert.Equal(t, []string{"identifier"}, se.Expected)
	assert.Equal(t, `syntax error at line 1, column 6: unexpected "7", expected identifier`, se.Error())
}

func TestRunReservedWordIsNotIdentifier(t *testing.T) {
	_, err := Run("let let", Config{}, toy)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 4, se.Pos.Offset)
}

func TestRunCollectsAlternatives(t *testing.T) {
	_, err := Run("", Config{}, toy)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{`"("`, "let", "number"}, se.Expected)
	assert.Equal(t, "end of input", se.Found)
}

func TestRunTrailingInput(t *testing.T) {
	_, err := Run("1 2", Config{}, toy)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"end of input"}, se.Expected)
	assert.Equal(t, 2, se.Pos.Offset)
}

func TestRunIllegalToken(t *testing.T) {
	_, err := Run("(1 ?", Config{}, toy)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, `unexpected character '?'`, se.Msg)
	assert.Equal(t, 3, se.Pos.Offset)
}

func TestRunCharset(t *testing.T) {
	_, err := Run("let Name", Config{}, toy)
	require.NoError(t, err)

	_, err = Run("let Name", Config{Charset: lexer.Lowercase}, toy)
	require.Error(t, err)
}

func TestRunDepthLimitBeforeParsing(t *testing.T) {
	src := strings.Repeat("(", 10) + "1" + strings.Repeat(")", 10)
	_, err := Run(src, Config{MaxDepth: 5}, toy)
	var le *LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, LimitDepth, le.Limit)
	assert.Equal(t, 10, le.Actual)

	_, err = Run(src, Config{MaxDepth: 10}, toy)
	require.NoError(t, err)
}

func TestConfigLimitsAreCapped(t *testing.T) {
	c := Config{MaxDepth: 1 << 30, MaxBytes: 1 << 40}.withDefaults()
	assert.Equal(t, CeilingMaxDepth, c.MaxDepth)
	assert.Equal(t, CeilingMaxBytes, c.MaxBytes)

	c = Config{}.withDefaults()
	assert.Equal(t, DefaultMaxDepth, c.MaxDepth)
	assert.Equal(t, DefaultMaxBytes, c.MaxBytes)
}

func TestRunDepthCeiling(t *testing.T) {
	n := CeilingMaxDepth + 1
	src := strings.Repeat("(", n) + "1" + strings.Repeat(")", n)
	_, err := Run(src, Config{MaxDepth: 1 << 30}, toy)
	var le *LimitError
	require.True(t, errors.As(err, &le), "got %v", err)
	assert.Equal(t, LimitDepth, le.Limit)
	assert.Equal(t, CeilingMaxDepth, le.Max)
	assert.Equal(t, n, le.Actual)
}

func TestRunUnbalancedParensAreSyntaxErrors(t *testing.T) {
	_, err := Run("((1)", Config{}, toy)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "end of input", se.Found)
}

func TestRunInputSizeLimit(t *testing.T) {
	_, err := Run("12345", Config{MaxBytes: 4}, toy)
	var le *LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, LimitInputBytes, le.Limit)
	assert.Equal(t, "limit exceeded: input_bytes is 5, maximum 4", le.Error())
}

func TestMemoReplaysOutcome(t *testing.T) {
	calls := 0
	g := Grammar{Start: func(p *Parser) *Node {
		rule := func() *Node {
			return p.Memo("num", func() *Node {
				calls++
				return p.Number()
			})
		}
		return p.Choice(
			func() *Node { return p.Seq("a", rule, func() *Node { return p.Symbol("+") }) },
			func() *Node { return p.Seq("b", rule, func() *Node { return p.Symbol("-") }) },
		)
	}}
	n, err := Run("1 -", Config{}, g)
	require.NoError(t, err)
	assert.Equal(t, Rule("b"), n.Rule)
	assert.Equal(t, 1, calls)
}

func TestNodeDump(t *testing.T) {
	n, err := Run("(let x)", Config{}, toy)
	require.NoError(t, err)
	want := "paren [0:7]\n" +
		"  \"(\" @1:1\n" +
		"  let [1:6]\n" +
		"    \"let\" @1:2\n" +
		"    \"x\" @1:6\n" +
		"  \")\" @1:7\n"
	assert.Equal(t, want, n.String())
}
