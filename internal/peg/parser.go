// Package peg is a small ordered-choice parsing engine shared by the dialect
// grammars.
//
// A grammar is a set of Go functions, one per non-terminal. Each function
// returns the node it built, or nil after restoring the input position.
// Alternatives are tried in the order they are written and the first one
// that succeeds is kept. Failed token matches are recorded so that, when the
// whole parse fails, the error names the furthest position reached and every
// token that would have been accepted there.
package peg

import (
	"slices"
	"strings"

	"github.com/roach88/streamql/internal/lexer"
)

// Default limits applied when a Config leaves them zero.
const (
	DefaultMaxDepth = 200
	DefaultMaxBytes = 1 << 20
)

// Ceilings on configured limits. Larger values are lowered to these, so the
// recursion of a parse stays far below the goroutine stack limit.
const (
	CeilingMaxDepth = 10000
	CeilingMaxBytes = 64 << 20
)

// Config holds the knobs a caller may set on a parse.
type Config struct {
	Charset  lexer.Charset
	MaxDepth int
	MaxBytes int
}

func (c Config) withDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	c.MaxDepth = min(c.MaxDepth, CeilingMaxDepth)
	c.MaxBytes = min(c.MaxBytes, CeilingMaxBytes)
	return c
}

// Grammar is an entry point into a set of rules.
type Grammar struct {
	// Reserved holds lowercase words that cannot be identifiers.
	Reserved map[string]bool
	// Start parses a complete query; Run checks that all input was consumed.
	Start func(p *Parser) *Node
}

// Run checks src against cfg's limits, tokenizes it and parses it with g.
// Errors are *SyntaxError or *LimitError.
func Run(src string, cfg Config, g Grammar) (*Node, error) {
	cfg = cfg.withDefaults()
	if len(src) > cfg.MaxBytes {
		return nil, &LimitError{Limit: LimitInputBytes, Max: cfg.MaxBytes, Actual: len(src)}
	}
	toks := lexer.Tokenize(src)
	if d := Nesting(toks); d > cfg.MaxDepth {
		return nil, &LimitError{Limit: LimitDepth, Max: cfg.MaxDepth, Actual: d}
	}
	p := &Parser{
		src:      src,
		toks:     toks,
		cfg:      cfg,
		reserved: g.Reserved,
		guard:    cfg.MaxDepth*4 + 32,
		memo:     make(map[memoKey]memoEntry),
		expected: make(map[string]struct{}),
	}
	return p.run(g.Start)
}

// Nesting returns the deepest parenthesis nesting in toks.
func Nesting(toks []lexer.Token) int {
	depth, deepest := 0, 0
	for _, t := range toks {
		switch {
		case t.Is("("):
			depth++
			deepest = max(deepest, depth)
		case t.Is(")"):
			if depth > 0 {
				depth--
			}
		}
	}
	return deepest
}

// bailout unwinds the parse when the recursion guard trips.
type bailout struct{}

type memoKey struct {
	rule Rule
	pos  int
}

type memoEntry struct {
	node *Node
	end  int
}

// Parser holds the state of one parse. It is not safe for concurrent use;
// every call to Run creates its own.
type Parser struct {
	src      string
	toks     []lexer.Token
	pos      int
	cfg      Config
	reserved map[string]bool

	depth int
	guard int
	memo  map[memoKey]memoEntry

	far      int
	expected map[string]struct{}
}

func (p *Parser) run(start func(*Parser) *Node) (n *Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			n, err = nil, &LimitError{Limit: LimitDepth, Max: p.cfg.MaxDepth}
		}
	}()

	n = start(p)
	if n != nil && p.Peek().Kind == lexer.EOF {
		return n, nil
	}
	if n != nil {
		p.Fail("end of input")
	}
	return nil, p.syntaxError()
}

// Source returns the text being parsed.
func (p *Parser) Source() string { return p.src }

// Config returns the effective configuration.
func (p *Parser) Config() Config { return p.cfg }

// Peek returns the current token.
func (p *Parser) Peek() lexer.Token { return p.PeekAt(0) }

// PeekAt returns the token n positions ahead, or EOF past the end.
func (p *Parser) PeekAt(n int) lexer.Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

// Mark returns the current position for a later Reset.
func (p *Parser) Mark() int { return p.pos }

// Reset rewinds to a position returned by Mark.
func (p *Parser) Reset(m int) { p.pos = m }

// Fail records that label was expected at the current position.
func (p *Parser) Fail(label string) {
	switch {
	case p.pos > p.far:
		p.far = p.pos
		clear(p.expected)
	case p.pos < p.far:
		return
	}
	p.expected[label] = struct{}{}
}

func (p *Parser) syntaxError() *SyntaxError {
	tok := p.toks[min(p.far, len(p.toks)-1)]
	if tok.Kind == lexer.Illegal {
		return &SyntaxError{Pos: tok.Pos, Found: tok.Text, Msg: tok.Msg}
	}
	exp := make([]string, 0, len(p.expected))
	for e := range p.expected {
		exp = append(exp, e)
	}
	slices.Sort(exp)
	return &SyntaxError{Pos: tok.Pos, Found: tok.Describe(), Expected: exp}
}

func (p *Parser) leaf(t lexer.Token) *Node {
	p.pos++
	return &Node{Rule: Leaf, Tok: t, Pos: t.Pos, Span: Span{Start: t.Pos.Offset, End: t.End}}
}

// Keyword matches the word kw in any case.
func (p *Parser) Keyword(kw string) *Node {
	if t := p.Peek(); t.IsKeyword(kw) {
		return p.leaf(t)
	}
	p.Fail(kw)
	return nil
}

// Symbol matches the symbol s.
func (p *Parser) Symbol(s string) *Node {
	if t := p.Peek(); t.Is(s) {
		return p.leaf(t)
	}
	p.Fail(`"` + s + `"`)
	return nil
}

// Ident matches a word that is legal under the configured charset and is
// not reserved.
func (p *Parser) Ident() *Node {
	t := p.Peek()
	if t.Kind == lexer.Word && p.cfg.Charset.Valid(t.Text) && !p.reserved[strings.ToLower(t.Text)] {
		return p.leaf(t)
	}
	p.Fail("identifier")
	return nil
}

// Number matches a numeric literal. A '-' written directly before the digits
// makes it negative; the leaf's text then includes the sign.
func (p *Parser) Number() *Node {
	t := p.Peek()
	if t.Kind == lexer.Number {
		return p.leaf(t)
	}
	if next := p.PeekAt(1); t.Is("-") && next.Kind == lexer.Number && next.Pos.Offset == t.End {
		p.pos += 2
		tok := lexer.Token{Kind: lexer.Number, Text: "-" + next.Text, Pos: t.Pos, End: next.End}
		return &Node{Rule: Leaf, Tok: tok, Pos: t.Pos, Span: Span{Start: t.Pos.Offset, End: next.End}}
	}
	p.Fail("number")
	return nil
}

// Integer matches an unsigned whole number.
func (p *Parser) Integer() *Node {
	if t := p.Peek(); t.Kind == lexer.Number && !strings.Contains(t.Text, ".") {
		return p.leaf(t)
	}
	p.Fail("integer")
	return nil
}

// String matches a string literal delimited by quote.
func (p *Parser) String(quote byte) *Node {
	if t := p.Peek(); t.Kind == lexer.String && t.Quote == quote {
		return p.leaf(t)
	}
	if quote == '"' {
		p.Fail("double-quoted string")
	} else {
		p.Fail("string")
	}
	return nil
}

// Node builds an interior node from kids, skipping nil entries. The span
// runs from the first kid to the last; a node without kids is empty and
// positioned at the current token.
func (p *Parser) Node(rule Rule, kids ...*Node) *Node {
	n := &Node{Rule: rule}
	for _, k := range kids {
		if k != nil {
			n.Kids = append(n.Kids, k)
		}
	}
	if len(n.Kids) == 0 {
		t := p.Peek()
		n.Pos = t.Pos
		n.Span = Span{Start: t.Pos.Offset, End: t.Pos.Offset}
		return n
	}
	first, last := n.Kids[0], n.Kids[len(n.Kids)-1]
	n.Pos = first.Pos
	n.Span = Span{Start: first.Span.Start, End: last.Span.End}
	return n
}

// Memo runs fn at most once per position for rule, replaying the stored
// outcome afterwards. fn must depend only on the input position.
func (p *Parser) Memo(rule Rule, fn func() *Node) *Node {
	key := memoKey{rule: rule, pos: p.pos}
	if e, ok := p.memo[key]; ok {
		p.pos = e.end
		return e.node
	}
	n := fn()
	p.memo[key] = memoEntry{node: n, end: p.pos}
	return n
}

// Nest runs fn one level deeper, aborting the parse with a LimitError once
// the recursion guard is exceeded.
func (p *Parser) Nest(fn func() *Node) *Node {
	p.depth++
	if p.depth > p.guard {
		panic(bailout{})
	}
	n := fn()
	p.depth--
	return n
}

// Choice tries each alternative in order from the same position and returns
// the first success.
func (p *Parser) Choice(alts ...func() *Node) *Node {
	m := p.Mark()
	for _, alt := range alts {
		if n := alt(); n != nil {
			return n
		}
		p.Reset(m)
	}
	return nil
}

// Seq matches each step in order and wraps the results in a rule node. If
// any step fails the position is restored and Seq returns nil.
func (p *Parser) Seq(rule Rule, steps ...func() *Node) *Node {
	m := p.Mark()
	kids := make([]*Node, 0, len(steps))
	for _, step := range steps {
		n := step()
		if n == nil {
			p.Reset(m)
			return nil
		}
		kids = append(kids, n)
	}
	return p.Node(rule, kids...)
}

// Optional returns fn's node, or nil with the position restored.
func (p *Parser) Optional(fn func() *Node) *Node {
	m := p.Mark()
	if n := fn(); n != nil {
		return n
	}
	p.Reset(m)
	return nil
}

// List matches item (sep item)* and returns the items with separators
// dropped, or nil if the first item fails. A trailing separator is not
// consumed.
func (p *Parser) List(sep string, item func() *Node) []*Node {
	first := item()
	if first == nil {
		return nil
	}
	items := []*Node{first}
	for {
		m := p.Mark()
		if p.Symbol(sep) == nil {
			return items
		}
		n := item()
		if n == nil {
			p.Reset(m)
			return items
		}
		items = append(items, n)
	}
}

// Sym returns a step matching the symbol s, for use with Seq and Choice.
func (p *Parser) Sym(s string) func() *Node {
	return func() *Node { return p.Symbol(s) }
}

// Kw returns a step matching the keyword kw, for use with Seq and Choice.
func (p *Parser) Kw(kw string) func() *Node {
	return func() *Node { return p.Keyword(kw) }
}
