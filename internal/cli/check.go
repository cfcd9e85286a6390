package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/engine"
	"github.com/roach88/streamql/internal/querysql"
	"github.com/roach88/streamql/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	DBPath  string
	Workers int
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	RunID   string         `json:"run_id"`
	Failed  int            `json:"failed"`
	Results []CheckedQuery `json:"results"`
}

// CheckedQuery is the outcome of one query of a check.
type CheckedQuery struct {
	Index       int    `json:"index"`
	Seq         int64  `json:"seq"`
	Outcome     string `json:"outcome"`
	ErrorCode   string `json:"error_code,omitempty"`
	Error       string `json:"error,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	SQL         string `json:"sql,omitempty"`

	// Seen counts earlier runs in the --db log that recorded the same AST.
	Seen int `json:"seen,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <file|->",
		Short: "Compile a file of queries as one batch",
		Long: `Compile every query of a file on the batch engine.

Queries are separated by semicolons outside string literals. A file with no
such semicolon holds one query per line. Blank queries are skipped.

With --db every parse is appended to the SQLite log, for later replay, and
each query that compiles reports how many earlier recorded parses share its
AST.
Exits 1 when any query fails to compile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite parse log to append to")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "compile workers (default from config)")

	return cmd
}

func runCheck(cmd *cobra.Command, rootOpts *RootOptions, opts *CheckOptions, path string) error {
	formatter := rootOpts.formatter(cmd)
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	queries := splitQueries(string(data))
	if len(queries) == 0 {
		return NewExitError(ExitCommandError, "no queries in input")
	}

	engOpts := []engine.Option{
		engine.WithConfig(rootOpts.cfg),
		engine.WithLogger(rootOpts.logger),
		engine.WithWorkers(opts.Workers),
	}
	var s *store.Store
	if opts.DBPath != "" {
		s, err = store.Open(opts.DBPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "open database", err)
		}
		defer s.Close()
		last, err := s.LastSeq(cmd.Context())
		if err != nil {
			return WrapExitError(ExitCommandError, "read database", err)
		}
		engOpts = append(engOpts, engine.WithStore(s), engine.WithClock(engine.NewClockAt(last)))
	}
	eng, err := engine.New(engOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "create engine", err)
	}

	reqs := make([]engine.Request, len(queries))
	for i, q := range queries {
		reqs[i] = engine.Request{Dialect: rootOpts.dialect, Text: q}
	}
	batch, err := eng.CompileBatch(cmd.Context(), reqs)
	if err != nil {
		return WrapExitError(ExitCommandError, "compile batch", err)
	}

	res := CheckResult{RunID: batch.RunID, Failed: batch.Failed()}
	for i, r := range batch.Results {
		cq := checkedQuery(i, r)
		if s != nil && r.Err == nil {
			if cq.Seen, err = seenBefore(cmd.Context(), s, batch.RunID, r.Fingerprint); err != nil {
				return WrapExitError(ExitCommandError, "read database", err)
			}
		}
		res.Results = append(res.Results, cq)
	}

	failed := res.Failed > 0
	if err := formatter.Result(res, failed, "check_failed", fmt.Sprintf("%d of %d queries failed", res.Failed, len(res.Results)), func(w io.Writer) {
		writeCheckText(w, res)
	}); err != nil {
		return err
	}
	if failed {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries failed", res.Failed, len(res.Results)))
	}
	return nil
}

func checkedQuery(i int, r engine.Result) CheckedQuery {
	cq := CheckedQuery{Index: i + 1, Seq: r.Seq, Outcome: r.Outcome()}
	if r.Err != nil {
		cq.Error = r.Err.Error()
		cq.ErrorCode = compiler.ErrorCode(r.Err)
		return cq
	}
	cq.Fingerprint = r.Fingerprint
	if sql, err := querysql.Render(r.Query); err == nil {
		cq.SQL = sql
	}
	return cq
}

// seenBefore counts the successful parses of other runs with the given
// fingerprint.
func seenBefore(ctx context.Context, s *store.Store, runID, fingerprint string) (int, error) {
	parses, err := s.ReadParsesByFingerprint(ctx, fingerprint)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range parses {
		if p.RunID != runID {
			n++
		}
	}
	return n, nil
}

func writeCheckText(w io.Writer, res CheckResult) {
	for _, q := range res.Results {
		if q.Error != "" {
			fmt.Fprintf(w, "%d\t%s\t%s\n", q.Index, q.Outcome, q.Error)
			continue
		}
		if q.Seen > 0 {
			fmt.Fprintf(w, "%d\tok\t%s\t(seen %d)\n", q.Index, q.SQL, q.Seen)
			continue
		}
		fmt.Fprintf(w, "%d\tok\t%s\n", q.Index, q.SQL)
	}
	fmt.Fprintf(w, "%d queries, %d failed (run %s)\n", len(res.Results), res.Failed, res.RunID)
}

// splitQueries splits text on semicolons outside quoted literals and //
// comments, or on newlines when there is none. Pieces holding only
// whitespace and comments are dropped.
func splitQueries(text string) []string {
	var (
		parts []string
		quote byte
		start int
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case c == ';':
			parts = append(parts, text[start:i])
			start = i + 1
		}
	}
	if parts == nil {
		parts = strings.Split(text, "\n")
	} else {
		parts = append(parts, text[start:])
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); !onlyComments(p) {
			out = append(out, p)
		}
	}
	return out
}

// onlyComments reports whether p holds nothing but whitespace and //
// comments.
func onlyComments(p string) bool {
	for _, line := range strings.Split(p, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "//") {
			return false
		}
	}
	return true
}
