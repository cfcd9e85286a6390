package lexer

import (
	"fmt"
	"strings"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Word
	Number
	String
	Symbol
	Illegal
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Word:
		return "word"
	case Number:
		return "number"
	case String:
		return "string"
	case Symbol:
		return "symbol"
	case Illegal:
		return "illegal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pos is a location in the source text. Offset is a byte offset from 0;
// Line and Column count from 1, with Column measured in runes.
type Pos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical unit.
//
// For String tokens Text holds the literal content without quotes and Quote
// holds the delimiter. For Illegal tokens Msg describes the problem.
type Token struct {
	Kind  Kind
	Text  string
	Quote byte
	Pos   Pos
	End   int
	Msg   string
}

// Is reports whether t is the symbol s.
func (t Token) Is(s string) bool {
	return t.Kind == Symbol && t.Text == s
}

// IsKeyword reports whether t is the word kw, ignoring case.
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == Word && strings.EqualFold(t.Text, kw)
}

// Describe renders t for use in error messages.
func (t Token) Describe() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case String:
		return fmt.Sprintf("string %c%s%c", t.Quote, t.Text, t.Quote)
	case Illegal:
		return t.Msg
	}
	return fmt.Sprintf("%q", t.Text)
}
