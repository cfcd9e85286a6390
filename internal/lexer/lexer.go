// Package lexer splits query text into tokens shared by every dialect.
//
// The lexer does not know about keywords: a keyword is a Word token that a
// grammar matches case-insensitively. Whitespace and // comments are skipped
// between tokens.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Symbols in maximal-munch order: two-character symbols first.
var symbols = []string{
	">=", "<=", "!=", "==", "&&", "||",
	"<", ">", "=", "^", "+", "-", "*", "/",
	"(", ")", ",", ".", "[", "]", "{", "}", ":",
}

// Tokenize scans src. The result always ends with an EOF token. Scanning
// stops at the first Illegal token, which is followed directly by EOF.
func Tokenize(src string) []Token {
	s := &scanner{src: src, line: 1, col: 1}
	var toks []Token
	for {
		t := s.next()
		toks = append(toks, t)
		switch t.Kind {
		case EOF:
			return toks
		case Illegal:
			toks = append(toks, Token{Kind: EOF, Pos: s.pos(), End: s.off})
			return toks
		}
	}
}

type scanner struct {
	src  string
	off  int
	line int
	col  int
}

func (s *scanner) pos() Pos {
	return Pos{Offset: s.off, Line: s.line, Column: s.col}
}

func (s *scanner) peek(n int) byte {
	if s.off+n < len(s.src) {
		return s.src[s.off+n]
	}
	return 0
}

// advance consumes one rune and keeps line and column current.
func (s *scanner) advance() rune {
	r, size := utf8.DecodeRuneInString(s.src[s.off:])
	s.off += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *scanner) skipSpace() {
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.advance()
		case c == '/' && s.peek(1) == '/':
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *scanner) next() Token {
	s.skipSpace()
	start := s.pos()
	if s.off >= len(s.src) {
		return Token{Kind: EOF, Pos: start, End: s.off}
	}

	c := s.src[s.off]
	switch {
	case isWordStart(c):
		for s.off < len(s.src) && isWordPart(s.src[s.off]) {
			s.advance()
		}
		return Token{Kind: Word, Text: s.src[start.Offset:s.off], Pos: start, End: s.off}
	case isDigit(c):
		return s.number(start)
	case c == '\'' || c == '"':
		return s.quoted(start, c)
	}

	for _, sym := range symbols {
		if len(s.src)-s.off >= len(sym) && s.src[s.off:s.off+len(sym)] == sym {
			for range sym {
				s.advance()
			}
			return Token{Kind: Symbol, Text: sym, Pos: start, End: s.off}
		}
	}

	r := s.advance()
	return Token{
		Kind: Illegal,
		Text: string(r),
		Pos:  start,
		End:  s.off,
		Msg:  fmt.Sprintf("unexpected character %q", r),
	}
}

func (s *scanner) number(start Pos) Token {
	for s.off < len(s.src) && isDigit(s.src[s.off]) {
		s.advance()
	}
	if s.peek(0) == '.' && isDigit(s.peek(1)) {
		s.advance()
		for s.off < len(s.src) && isDigit(s.src[s.off]) {
			s.advance()
		}
	}
	if s.off < len(s.src) && isWordPart(s.src[s.off]) {
		for s.off < len(s.src) && isWordPart(s.src[s.off]) {
			s.advance()
		}
		text := s.src[start.Offset:s.off]
		return Token{
			Kind: Illegal,
			Text: text,
			Pos:  start,
			End:  s.off,
			Msg:  fmt.Sprintf("malformed number %q", text),
		}
	}
	return Token{Kind: Number, Text: s.src[start.Offset:s.off], Pos: start, End: s.off}
}

// quoted scans a string literal. Neither form has escape sequences.
// Single-quoted content is limited to letters, digits, space and -_#*%&/\;
// double-quoted content may hold anything but a double quote or newline.
func (s *scanner) quoted(start Pos, quote byte) Token {
	s.advance()
	for s.off < len(s.src) {
		c := s.src[s.off]
		if c == quote {
			text := s.src[start.Offset+1 : s.off]
			s.advance()
			return Token{Kind: String, Text: text, Quote: quote, Pos: start, End: s.off}
		}
		if c == '\n' {
			break
		}
		at := s.pos()
		r := s.advance()
		if quote == '\'' && !stringRune(r) {
			return Token{
				Kind: Illegal,
				Text: string(r),
				Pos:  at,
				End:  s.off,
				Msg:  fmt.Sprintf("character %q is not allowed in a string literal", r),
			}
		}
	}
	return Token{
		Kind: Illegal,
		Text: s.src[start.Offset:s.off],
		Pos:  start,
		End:  s.off,
		Msg:  "unterminated string literal",
	}
}

func stringRune(r rune) bool {
	switch r {
	case ' ', '-', '_', '#', '*', '%', '&', '/', '\\':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWordStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isWordPart(c byte) bool {
	return isWordStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
