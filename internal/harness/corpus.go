package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/lexer"
)

// Corpus is a named list of conformance cases.
type Corpus struct {
	// Name identifies the corpus and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the corpus covers.
	Description string `yaml:"description"`

	// Charset selects the identifier charset; empty means unified.
	Charset string `yaml:"charset,omitempty"`

	Cases []Case `yaml:"cases"`
}

// Case is one query and its expected result.
type Case struct {
	Name    string `yaml:"name"`
	Dialect string `yaml:"dialect"`
	Query   string `yaml:"query"`
	Expect  Expect `yaml:"expect"`
}

// Expect describes the expected result of a case.
type Expect struct {
	// SQL is the canonical rendering of the AST.
	SQL string `yaml:"sql,omitempty"`

	// SameAs names an earlier case whose AST must be equal.
	SameAs string `yaml:"same_as,omitempty"`

	// ErrorKind is syntax_error, structural_error or limit_error.
	ErrorKind string `yaml:"error_kind,omitempty"`

	// ErrorCode is the S1xx code of a structural error.
	ErrorCode string `yaml:"error_code,omitempty"`

	// Offset is the byte offset of a syntax error.
	Offset *int `yaml:"offset,omitempty"`
}

// LoadCorpus reads and validates a corpus file. Unknown fields are
// rejected so that typos do not silently drop expectations.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	return ParseCorpus(data)
}

// ParseCorpus parses and validates corpus YAML.
func ParseCorpus(data []byte) (*Corpus, error) {
	var c Corpus
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateCorpus(&c); err != nil {
		return nil, fmt.Errorf("invalid corpus: %w", err)
	}
	return &c, nil
}

var errorKinds = map[string]bool{
	compiler.OutcomeSyntax:     true,
	compiler.OutcomeStructural: true,
	compiler.OutcomeLimit:      true,
}

func validateCorpus(c *Corpus) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	if _, err := lexer.ParseCharset(c.Charset); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Cases))
	for i, tc := range c.Cases {
		if tc.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[tc.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, tc.Name)
		}
		if _, err := compiler.ParseDialect(tc.Dialect); err != nil {
			return fmt.Errorf("cases[%d]: %w", i, err)
		}
		if err := validateExpect(tc.Expect, seen); err != nil {
			return fmt.Errorf("cases[%d].expect: %w", i, err)
		}
		seen[tc.Name] = true
	}
	return nil
}

func validateExpect(e Expect, earlier map[string]bool) error {
	set := 0
	for _, s := range []string{e.SQL, e.SameAs, e.ErrorKind} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of sql, same_as and error_kind is required")
	}
	if e.SameAs != "" && !earlier[e.SameAs] {
		return fmt.Errorf("same_as %q does not name an earlier case", e.SameAs)
	}
	if e.ErrorKind != "" && !errorKinds[e.ErrorKind] {
		return fmt.Errorf("unknown error_kind %q", e.ErrorKind)
	}
	if e.ErrorCode != "" && e.ErrorKind != compiler.OutcomeStructural {
		return fmt.Errorf("error_code requires error_kind %s", compiler.OutcomeStructural)
	}
	if e.Offset != nil && e.ErrorKind != compiler.OutcomeSyntax {
		return fmt.Errorf("offset requires error_kind %s", compiler.OutcomeSyntax)
	}
	return nil
}
