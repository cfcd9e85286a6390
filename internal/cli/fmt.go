package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/streamql/internal/querysql"
)

// FmtOptions holds flags for the fmt command.
type FmtOptions struct {
	Upper  bool
	Pretty bool
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FmtOptions{}

	cmd := &cobra.Command{
		Use:   "fmt [query|-]",
		Short: "Render a query as canonical SQL",
		Long: `Compile a query in any dialect and render its AST as SQL-like text.

Compiling the rendering with --dialect sql yields the same AST.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, rootOpts, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Upper, "upper", false, "upper-case keywords and function names")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "one clause per line")

	return cmd
}

func runFmt(cmd *cobra.Command, rootOpts *RootOptions, opts *FmtOptions, args []string) error {
	formatter := rootOpts.formatter(cmd)
	text, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	q, err := compileQuery(rootOpts, text)
	if err != nil {
		return formatter.CompileError(err)
	}
	out, err := querysql.Renderer{Upper: opts.Upper, Pretty: opts.Pretty}.Render(q)
	if err != nil {
		return WrapExitError(ExitCommandError, "render", err)
	}
	if rootOpts.Format == "json" {
		return formatter.Success(map[string]string{"sql": out})
	}
	return formatter.Success(out)
}
