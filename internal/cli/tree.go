package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/peg"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [query|-]",
		Short: "Print the concrete parse tree of a query",
		Long: `Parse a query without normalizing it and print the parse tree.

Interior nodes print as "rule [start:end]" with their byte span, leaves as
the token they matched with its line and column. DataFrame filter and
having strings stay unparsed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, rootOpts, args)
		},
	}
}

func runTree(cmd *cobra.Command, rootOpts *RootOptions, args []string) error {
	formatter := rootOpts.formatter(cmd)
	text, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	opts, err := rootOpts.compileOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}
	tree, err := compiler.ParseTree(rootOpts.dialect, text, opts...)
	if err != nil {
		return formatter.CompileError(err)
	}
	if rootOpts.Format == "json" {
		return formatter.Success(treeJSON(tree))
	}
	_, err = formatter.Writer.Write([]byte(tree.String()))
	return err
}

// treeJSON converts a parse tree into nested maps.
func treeJSON(n *peg.Node) map[string]any {
	if n.IsLeaf() {
		return map[string]any{
			"token": n.Tok.Describe(),
			"pos":   n.Pos,
		}
	}
	kids := make([]any, len(n.Kids))
	for i, k := range n.Kids {
		kids[i] = treeJSON(k)
	}
	return map[string]any{
		"rule": string(n.Rule),
		"span": n.Span,
		"kids": kids,
	}
}
