package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/streamql/internal/queryir"
)

// PlanResult is the JSON payload of the plan command.
type PlanResult struct {
	Plan       string            `json:"plan"`
	Streamable bool              `json:"streamable"`
	Warnings   []queryir.Warning `json:"warnings"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [query|-]",
		Short: "Print the logical plan and streaming warnings of a query",
		Long: `Compile a query, lower it to a chain of logical operators and print it,
followed by any streaming-compatibility warnings (W1xx).

Warnings do not change the exit status.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, rootOpts, args)
		},
	}
}

func runPlan(cmd *cobra.Command, rootOpts *RootOptions, args []string) error {
	formatter := rootOpts.formatter(cmd)
	text, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	q, err := compileQuery(rootOpts, text)
	if err != nil {
		return formatter.CompileError(err)
	}
	plan, err := queryir.Lower(q)
	if err != nil {
		return WrapExitError(ExitCommandError, "lower", err)
	}
	out, err := plan.Format()
	if err != nil {
		return WrapExitError(ExitCommandError, "format plan", err)
	}
	check := queryir.Check(q)

	return formatter.Result(PlanResult{
		Plan:       out,
		Streamable: check.IsStreamable,
		Warnings:   check.Warnings,
	}, false, "", "", func(w io.Writer) {
		fmt.Fprintln(w, out)
		for _, warn := range check.Warnings {
			fmt.Fprintf(w, "warning %s\n", warn)
		}
	})
}
