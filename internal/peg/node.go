package peg

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/streamql/internal/lexer"
)

// Rule names a non-terminal of a grammar.
type Rule string

// Leaf is the rule of nodes that wrap a single matched token.
const Leaf Rule = "token"

// Span is a half-open byte range [Start, End) of the source.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Node is a concrete parse tree node. Leaves carry the token they matched;
// interior nodes carry their children in source order.
type Node struct {
	Rule Rule
	Tok  lexer.Token
	Pos  lexer.Pos
	Span Span
	Kids []*Node
}

// IsLeaf reports whether n wraps a token.
func (n *Node) IsLeaf() bool { return n.Rule == Leaf }

// Text returns the token text of a leaf, or "" for interior nodes.
func (n *Node) Text() string {
	if !n.IsLeaf() {
		return ""
	}
	return n.Tok.Text
}

// Is reports whether n is a leaf matching the keyword or symbol s.
func (n *Node) Is(s string) bool {
	if !n.IsLeaf() {
		return false
	}
	return n.Tok.Is(s) || n.Tok.IsKeyword(s)
}

// Find returns the first child with rule r, or nil.
func (n *Node) Find(r Rule) *Node {
	for _, k := range n.Kids {
		if k.Rule == r {
			return k
		}
	}
	return nil
}

// All returns every child with rule r.
func (n *Node) All(r Rule) []*Node {
	var out []*Node
	for _, k := range n.Kids {
		if k.Rule == r {
			out = append(out, k)
		}
	}
	return out
}

// Has reports whether n has a leaf child matching the keyword or symbol s.
func (n *Node) Has(s string) bool {
	for _, k := range n.Kids {
		if k.Is(s) {
			return true
		}
	}
	return false
}

// Source returns the text n covers in src.
func (n *Node) Source(src string) string {
	if n.Span.Start < 0 || n.Span.End > len(src) || n.Span.Start > n.Span.End {
		return ""
	}
	return src[n.Span.Start:n.Span.End]
}

// Dump writes an indented rendering of the tree rooted at n.
func (n *Node) Dump(w io.Writer) error {
	return n.dump(w, 0)
}

func (n *Node) dump(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	if n.IsLeaf() {
		_, err := fmt.Fprintf(w, "%s%s @%s\n", indent, n.Tok.Describe(), n.Pos)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s [%d:%d]\n", indent, n.Rule, n.Span.Start, n.Span.End); err != nil {
		return err
	}
	for _, k := range n.Kids {
		if err := k.dump(w, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// String returns the Dump rendering.
func (n *Node) String() string {
	var b strings.Builder
	_ = n.Dump(&b)
	return b.String()
}
