// Package config loads frontend settings from YAML or CUE files.
//
// A file may set any subset of the fields; the rest keep their defaults.
//
//	limits:
//	  max_input_bytes: 1048576
//	  max_depth: 200
//	charset: unified
//	workers: 4
//
// CUE files are unified with the embedded #Config schema, so unknown fields
// and out-of-range values are rejected with their source position.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/streamql/internal/lexer"
	"github.com/roach88/streamql/internal/peg"
)

//go:embed schema.cue
var schemaSource string

// Defaults.
const (
	DefaultMaxInputBytes = peg.DefaultMaxBytes
	DefaultMaxDepth      = peg.DefaultMaxDepth
	DefaultWorkers       = 4

	// Upper bounds, matching the embedded CUE schema.
	MaxInputBytesCeiling = peg.CeilingMaxBytes
	MaxDepthCeiling      = peg.CeilingMaxDepth
	MaxWorkers           = 256
)

// Limits bounds the input a parse accepts.
type Limits struct {
	MaxInputBytes int `json:"max_input_bytes,omitempty" yaml:"max_input_bytes"`
	MaxDepth      int `json:"max_depth,omitempty" yaml:"max_depth"`
}

// Config is the full set of settings.
type Config struct {
	Limits  Limits `json:"limits" yaml:"limits"`
	Charset string `json:"charset,omitempty" yaml:"charset"`
	Workers int    `json:"workers,omitempty" yaml:"workers"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Limits:  Limits{MaxInputBytes: DefaultMaxInputBytes, MaxDepth: DefaultMaxDepth},
		Charset: lexer.Unified.String(),
		Workers: DefaultWorkers,
	}
}

// Identifiers returns the configured identifier charset.
func (c Config) Identifiers() (lexer.Charset, error) {
	return lexer.ParseCharset(c.Charset)
}

// Error is a configuration problem, with a source position when the file
// format provides one.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads settings from path. The format follows the extension: .yaml
// and .yml are YAML, .cue is CUE.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	var c Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		c, err = parseYAML(data)
	case ".cue":
		c, err = parseCUE(path, data)
	default:
		return Config{}, errors.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

func parseYAML(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "decode yaml")
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func parseCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, errors.Wrap(err, "compile embedded schema")
	}
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, cueError(err)
	}
	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, cueError(err)
	}
	var c Config
	if err := v.Decode(&c); err != nil {
		return Config{}, cueError(err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// cueError keeps the first error CUE reports, with its position.
func cueError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	out := &Error{Field: strings.Join(first.Path(), "."), Message: first.Error()}
	if out.Field == "" {
		out.Field = "config"
	}
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		out.Pos = pos[0]
	}
	return out
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Limits.MaxInputBytes == 0 {
		c.Limits.MaxInputBytes = d.Limits.MaxInputBytes
	}
	if c.Limits.MaxDepth == 0 {
		c.Limits.MaxDepth = d.Limits.MaxDepth
	}
	if c.Charset == "" {
		c.Charset = d.Charset
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
}

// Validate checks field ranges. CUE files are already checked by the
// schema; YAML files rely on this.
func (c Config) Validate() error {
	switch {
	case c.Limits.MaxInputBytes < 0:
		return &Error{Field: "limits.max_input_bytes", Message: "must be positive"}
	case c.Limits.MaxInputBytes > MaxInputBytesCeiling:
		return &Error{Field: "limits.max_input_bytes", Message: fmt.Sprintf("must be at most %d", MaxInputBytesCeiling)}
	case c.Limits.MaxDepth < 0:
		return &Error{Field: "limits.max_depth", Message: "must be positive"}
	case c.Limits.MaxDepth > MaxDepthCeiling:
		return &Error{Field: "limits.max_depth", Message: fmt.Sprintf("must be at most %d", MaxDepthCeiling)}
	case c.Workers < 0:
		return &Error{Field: "workers", Message: "must be positive"}
	case c.Workers > MaxWorkers:
		return &Error{Field: "workers", Message: fmt.Sprintf("must be at most %d", MaxWorkers)}
	}
	if _, err := c.Identifiers(); err != nil {
		return &Error{Field: "charset", Message: err.Error()}
	}
	return nil
}
