package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/config"
	"github.com/roach88/streamql/internal/engine"
	"github.com/roach88/streamql/internal/testutil"
)

// Harness runs corpora.
type Harness struct {
	cfg    config.Config
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithConfig sets the limits used for every case. A corpus charset
// overrides the configured one.
func WithConfig(c config.Config) Option {
	return func(h *Harness) { h.cfg = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness with the default configuration.
func New(opts ...Option) *Harness {
	h := &Harness{
		cfg:    config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run compiles every case of c on the batch engine and checks it against
// its expectation. The returned error is for failures of the harness
// itself; failing cases are reported in the Result.
//
// Run IDs are sequential, so two runs of the same corpus produce the same
// Result.
func Run(c *Corpus) (*Result, error) {
	return New().Run(context.Background(), c)
}

// Run is like the package-level Run with the Harness settings.
func (h *Harness) Run(ctx context.Context, c *Corpus) (*Result, error) {
	cfg := h.cfg
	if c.Charset != "" {
		cfg.Charset = c.Charset
	}
	eng, err := engine.New(
		engine.WithConfig(cfg),
		engine.WithRunIDs(&testutil.SequentialRunIDs{}),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", c.Name, err)
	}

	reqs := make([]engine.Request, len(c.Cases))
	for i, tc := range c.Cases {
		d, err := compiler.ParseDialect(tc.Dialect)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", tc.Name, err)
		}
		reqs[i] = engine.Request{Dialect: d, Text: tc.Query}
	}
	batch, err := eng.CompileBatch(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", c.Name, err)
	}

	res := &Result{Corpus: c.Name, Pass: true, Cases: make([]CaseResult, len(c.Cases))}
	byName := make(map[string]engine.Result, len(c.Cases))
	for i, tc := range c.Cases {
		got := batch.Results[i]
		res.Cases[i] = checkCase(tc, got, byName)
		if !res.Cases[i].Pass {
			res.Pass = false
		}
		byName[tc.Name] = got
	}
	h.logger.Info("corpus finished", "corpus", c.Name, "cases", len(c.Cases), "failed", len(res.Failed()))
	return res, nil
}
