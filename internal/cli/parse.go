package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/ir"
)

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Dialect     string          `json:"dialect"`
	Fingerprint string          `json:"fingerprint"`
	AST         json.RawMessage `json:"ast"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [query|-]",
		Short: "Print the canonical JSON AST of a query",
		Long: `Compile a query and print its AST as canonical JSON.

The query is read from the argument, or from stdin when the argument is "-"
or missing. Queries that compile to the same AST print identical bytes,
whatever their dialect.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, rootOpts, args)
		},
	}
}

func runParse(cmd *cobra.Command, rootOpts *RootOptions, args []string) error {
	formatter := rootOpts.formatter(cmd)
	text, err := readQuery(cmd, args)
	if err != nil {
		return err
	}

	q, err := compileQuery(rootOpts, text)
	if err != nil {
		return formatter.CompileError(err)
	}
	ast, err := ir.CanonicalJSON(q)
	if err != nil {
		return WrapExitError(ExitCommandError, "encode AST", err)
	}
	if rootOpts.Format == "json" {
		fp, err := ir.Fingerprint(q)
		if err != nil {
			return WrapExitError(ExitCommandError, "fingerprint AST", err)
		}
		return formatter.Success(ParseResult{
			Dialect:     string(rootOpts.dialect),
			Fingerprint: fp,
			AST:         ast,
		})
	}
	return formatter.Success(string(ast))
}

// compileQuery compiles text with the resolved dialect and settings.
func compileQuery(rootOpts *RootOptions, text string) (*ir.Query, error) {
	opts, err := rootOpts.compileOptions()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid settings", err)
	}
	return compiler.Compile(rootOpts.dialect, text, opts...)
}
