package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/store"
)

// Mismatch is one field of a stored parse that a fresh compile no longer
// reproduces.
type Mismatch struct {
	RunID    string
	Seq      int64
	Field    string
	Stored   string
	Replayed string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("run %s seq %d: %s: stored %q, replayed %q", m.RunID, m.Seq, m.Field, m.Stored, m.Replayed)
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	Runs       int
	Parses     int
	Mismatches []Mismatch
}

// Deterministic reports whether every stored parse was reproduced.
func (r ReplayReport) Deterministic() bool {
	return len(r.Mismatches) == 0
}

// Replay recompiles every parse in s with the settings of its run, in log
// order, and compares the outcome, error and AST with the stored values.
//
// Runs recorded by a different IR version are compared anyway: a changed
// encoding shows up as AST mismatches, which is what a version bump is
// meant to explain.
func Replay(ctx context.Context, s *store.Store, logger *slog.Logger) (ReplayReport, error) {
	logger = orDiscard(logger)
	var rep ReplayReport

	runs, err := s.ReadRuns(ctx)
	if err != nil {
		return rep, fmt.Errorf("replay: %w", err)
	}
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := replayRun(ctx, s, run, logger, &rep); err != nil {
			return rep, err
		}
	}
	logger.Info("replay finished", "runs", rep.Runs, "parses", rep.Parses, "mismatches", len(rep.Mismatches))
	return rep, nil
}

// ReplayRun is like Replay for the single run with the given ID. It returns
// an error wrapping store.ErrNotFound when there is no such run.
func ReplayRun(ctx context.Context, s *store.Store, runID string, logger *slog.Logger) (ReplayReport, error) {
	logger = orDiscard(logger)
	var rep ReplayReport

	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return rep, fmt.Errorf("replay: %w", err)
	}
	if err := replayRun(ctx, s, run, logger, &rep); err != nil {
		return rep, err
	}
	logger.Info("replay finished", "run_id", runID, "parses", rep.Parses, "mismatches", len(rep.Mismatches))
	return rep, nil
}

func replayRun(ctx context.Context, s *store.Store, run store.Run, logger *slog.Logger, rep *ReplayReport) error {
	e, err := New(WithConfig(run.Config), WithWorkers(1), WithLogger(logger))
	if err != nil {
		return fmt.Errorf("replay run %s: %w", run.ID, err)
	}
	parses, err := s.ReadParses(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("replay run %s: %w", run.ID, err)
	}
	if run.IRVersion != ir.IRVersion {
		logger.Warn("replaying run from another IR version",
			"run_id", run.ID, "stored", run.IRVersion, "current", ir.IRVersion)
	}
	for _, p := range parses {
		rep.Mismatches = append(rep.Mismatches, e.replayOne(p)...)
	}
	rep.Runs++
	rep.Parses += len(parses)
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

func (e *Engine) replayOne(p store.Parse) []Mismatch {
	r := e.compile(Request{Dialect: compiler.Dialect(p.Dialect), Text: p.Text})
	got := toRecord(p.RunID, p.Charset, r)

	var out []Mismatch
	check := func(field, stored, replayed string) {
		if stored != replayed {
			out = append(out, Mismatch{RunID: p.RunID, Seq: p.Seq, Field: field, Stored: stored, Replayed: replayed})
		}
	}
	check("id", p.ID, got.ID)
	check("outcome", p.Outcome, got.Outcome)
	check("error_code", p.ErrorCode, got.ErrorCode)
	check("error", p.Error, got.Error)
	check("fingerprint", p.Fingerprint, got.Fingerprint)
	check("ast", p.AST, got.AST)
	return out
}
