package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/streamql/internal/engine"
	"github.com/roach88/streamql/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	DBPath string
	RunID  string
}

// ReplayResult is the JSON payload of the replay command.
type ReplayResult struct {
	Runs          int      `json:"runs"`
	Parses        int      `json:"parses"`
	Deterministic bool     `json:"deterministic"`
	Mismatches    []string `json:"mismatches,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Recompile a parse log and verify determinism",
		Long: `Recompile every parse recorded by "check --db", with the settings of
the run that recorded it, and compare the outcome, error and AST.
With --run only that run is replayed.

Exits 1 when any parse is not reproduced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite parse log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay only this run ID")

	return cmd
}

func runReplay(cmd *cobra.Command, rootOpts *RootOptions, opts *ReplayOptions) error {
	formatter := rootOpts.formatter(cmd)
	if _, err := os.Stat(opts.DBPath); err != nil {
		_ = formatter.Error("not_found", fmt.Sprintf("database not found: %s", opts.DBPath), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	s, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer s.Close()

	var rep engine.ReplayReport
	if opts.RunID != "" {
		rep, err = engine.ReplayRun(cmd.Context(), s, opts.RunID, rootOpts.logger)
	} else {
		rep, err = engine.Replay(cmd.Context(), s, rootOpts.logger)
	}
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error("not_found", fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "replay", err)
	}

	res := ReplayResult{Runs: rep.Runs, Parses: rep.Parses, Deterministic: rep.Deterministic()}
	for _, m := range rep.Mismatches {
		res.Mismatches = append(res.Mismatches, m.String())
	}
	message := fmt.Sprintf("%d mismatches in %d parses", len(res.Mismatches), res.Parses)
	if err := formatter.Result(res, !res.Deterministic, "nondeterministic", message, func(w io.Writer) {
		for _, m := range res.Mismatches {
			fmt.Fprintln(w, m)
		}
		status := "deterministic"
		if !res.Deterministic {
			status = message
		}
		fmt.Fprintf(w, "replayed %d parses in %d runs: %s\n", res.Parses, res.Runs, status)
	}); err != nil {
		return err
	}
	if !res.Deterministic {
		return NewExitError(ExitFailure, message)
	}
	return nil
}
