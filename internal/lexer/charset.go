package lexer

import "fmt"

// Charset selects which words are legal identifiers. Keywords are matched
// case-insensitively under every charset.
type Charset int

const (
	// Unified accepts [A-Za-z_][A-Za-z0-9_]*.
	Unified Charset = iota
	// Lowercase accepts [a-z_][a-z0-9_]*.
	Lowercase
)

func (c Charset) String() string {
	switch c {
	case Unified:
		return "unified"
	case Lowercase:
		return "lowercase"
	}
	return fmt.Sprintf("Charset(%d)", int(c))
}

// ParseCharset parses the names printed by String.
func ParseCharset(s string) (Charset, error) {
	switch s {
	case "", "unified":
		return Unified, nil
	case "lowercase":
		return Lowercase, nil
	}
	return Unified, fmt.Errorf("unknown identifier charset %q (want unified or lowercase)", s)
}

// Valid reports whether word is an identifier under c.
func (c Charset) Valid(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		b := word[i]
		switch {
		case b == '_', b >= 'a' && b <= 'z':
		case b >= 'A' && b <= 'Z':
			if c == Lowercase {
				return false
			}
		case b >= '0' && b <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
