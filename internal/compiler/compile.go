// Package compiler is the entry point of the frontend: it dispatches query
// text to the grammar of the selected dialect and returns the common AST.
//
// Errors are typed and inspected with errors.As:
//
//   - *peg.SyntaxError: the text does not match the dialect's grammar
//   - *peg.StructuralError: the text parsed but cannot form a query
//   - *peg.LimitError: the text exceeds a configured bound
//
// Compilation is a pure function of the dialect, the text and the options.
// Calls share no state and may run concurrently.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/streamql/internal/config"
	"github.com/roach88/streamql/internal/dialect/dataframe"
	"github.com/roach88/streamql/internal/dialect/sqlish"
	"github.com/roach88/streamql/internal/dialect/stream"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/lexer"
	"github.com/roach88/streamql/internal/peg"
)

// Dialect selects a surface syntax.
type Dialect string

const (
	SQL       Dialect = "sql"
	DataFrame Dialect = "dataframe"
	Stream    Dialect = "stream"
)

// Dialects lists every dialect in a fixed order.
var Dialects = []Dialect{SQL, DataFrame, Stream}

// ParseDialect parses a dialect name, ignoring case.
func ParseDialect(s string) (Dialect, error) {
	for _, d := range Dialects {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown dialect %q (want sql, dataframe or stream)", s)
}

type options struct {
	peg    peg.Config
	logger *slog.Logger
}

// Option configures a compilation.
type Option func(*options)

// WithLimits bounds input size and nesting depth. Zero fields keep the
// defaults.
func WithLimits(l config.Limits) Option {
	return func(o *options) {
		o.peg.MaxBytes = l.MaxInputBytes
		o.peg.MaxDepth = l.MaxDepth
	}
}

// WithCharset selects which words are identifiers.
func WithCharset(c lexer.Charset) Option {
	return func(o *options) { o.peg.Charset = c }
}

// WithLogger sets the logger for debug output. Without one nothing is
// logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// FromConfig applies the limits and charset of c.
func FromConfig(c config.Config) ([]Option, error) {
	cs, err := c.Identifiers()
	if err != nil {
		return nil, err
	}
	return []Option{WithLimits(c.Limits), WithCharset(cs)}, nil
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Compile parses text in dialect d and returns its AST.
func Compile(d Dialect, text string, opts ...Option) (*ir.Query, error) {
	o := newOptions(opts)

	var (
		q   *ir.Query
		err error
	)
	switch d {
	case SQL:
		q, err = sqlish.Compile(text, o.peg)
	case DataFrame:
		q, err = dataframe.Compile(text, o.peg)
	case Stream:
		q, err = stream.Compile(text, o.peg)
	default:
		return nil, fmt.Errorf("unknown dialect %q", d)
	}

	o.logger.Debug("compile",
		"dialect", d,
		"bytes", len(text),
		"outcome", Outcome(err),
	)
	return q, err
}

// ParseTree returns the concrete parse tree of text without building the
// AST. For the DataFrame dialect, filter and having strings stay unparsed.
func ParseTree(d Dialect, text string, opts ...Option) (*peg.Node, error) {
	o := newOptions(opts)
	switch d {
	case SQL:
		return sqlish.Parse(text, o.peg)
	case DataFrame:
		return dataframe.Parse(text, o.peg)
	case Stream:
		return stream.Parse(text, o.peg)
	}
	return nil, fmt.Errorf("unknown dialect %q", d)
}

// Outcomes reported by Outcome.
const (
	OutcomeOK         = "ok"
	OutcomeSyntax     = "syntax_error"
	OutcomeStructural = "structural_error"
	OutcomeLimit      = "limit_error"
	OutcomeOther      = "error"
)

// Outcome classifies the error returned by Compile.
func Outcome(err error) string {
	var (
		syn *peg.SyntaxError
		st  *peg.StructuralError
		lim *peg.LimitError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &syn):
		return OutcomeSyntax
	case errors.As(err, &st):
		return OutcomeStructural
	case errors.As(err, &lim):
		return OutcomeLimit
	}
	return OutcomeOther
}

// ErrorCode returns the S1xx code of a structural error, or "".
func ErrorCode(err error) string {
	var st *peg.StructuralError
	if errors.As(err, &st) {
		return st.Code
	}
	return ""
}
