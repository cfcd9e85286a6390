package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/streamql/internal/harness"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test <corpus.yaml>",
		Short: "Run a conformance corpus",
		Long: `Compile every case of a YAML corpus and check it against its expectation:
a canonical SQL rendering, the same AST as an earlier case, or an error
with its kind, code and offset. Every case that compiles must also round
trip through its SQL rendering.

The --dialect flag is ignored; each case names its own dialect. A charset
set in the corpus overrides --charset.

Exits 1 when any case fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, rootOpts, args[0])
		},
	}
}

func runTest(cmd *cobra.Command, rootOpts *RootOptions, path string) error {
	formatter := rootOpts.formatter(cmd)
	c, err := harness.LoadCorpus(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load corpus", err)
	}

	h := harness.New(harness.WithConfig(rootOpts.cfg), harness.WithLogger(rootOpts.logger))
	result, err := h.Run(cmd.Context(), c)
	if err != nil {
		return WrapExitError(ExitCommandError, "run corpus", err)
	}

	failed := len(result.Failed())
	message := fmt.Sprintf("%d of %d cases failed", failed, len(result.Cases))
	if err := formatter.Result(result, !result.Pass, "test_failed", message, func(w io.Writer) {
		writeTestText(w, result)
	}); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, message)
	}
	return nil
}

func writeTestText(w io.Writer, r *harness.Result) {
	fmt.Fprintf(w, "corpus %s\n", r.Corpus)
	for _, c := range r.Cases {
		if c.Pass {
			fmt.Fprintf(w, "  PASS %s\n", c.Name)
			continue
		}
		fmt.Fprintf(w, "  FAIL %s: %s\n", c.Name, strings.Join(c.Failures, "; "))
	}
	fmt.Fprintf(w, "%d cases, %d failed\n", len(r.Cases), len(r.Failed()))
}
