package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/config"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/store"
)

// Request is one query to compile.
type Request struct {
	Dialect compiler.Dialect
	Text    string
}

// Result is the outcome of one Request.
type Result struct {
	Request

	// Seq is the logical time the result was released by the writer.
	Seq int64
	// ParseID identifies the request by content.
	ParseID string

	Query       *ir.Query // nil when Err is set
	Err         error
	Fingerprint string
	AST         []byte // canonical JSON
}

// Outcome classifies Err; see compiler.Outcome.
func (r Result) Outcome() string {
	return compiler.Outcome(r.Err)
}

// Batch is the result of CompileBatch. Results are in request order.
type Batch struct {
	RunID   string
	Seq     int64
	Results []Result
}

// Failed counts the results with an error.
func (b *Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Engine compiles batches of requests.
//
// Thread-safety model:
//   - CompileBatch(): safe from any goroutine; batches share the clock, so
//     their seq ranges interleave but never collide
//   - the store, when set, is written only by each batch's writer goroutine
type Engine struct {
	store   *store.Store
	clock   *Clock
	ids     RunIDGenerator
	cfg     config.Config
	workers int
	logger  *slog.Logger

	compileOpts []compiler.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore records every batch in s.
func WithStore(s *store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock sets the clock. Use NewClockAt(store.LastSeq) to append to an
// existing log.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRunIDs sets the run ID generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithConfig sets limits, charset and, unless WithWorkers is given, the
// worker count.
func WithConfig(c config.Config) Option {
	return func(e *Engine) { e.cfg = c }
}

// WithWorkers sets the number of compile workers.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithLogger sets the logger. Batches log at Info, records at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine. Without options it compiles with the default
// configuration, records nothing and logs nothing.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
		cfg:    config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = e.cfg.Workers
	}
	if e.workers <= 0 {
		e.workers = config.DefaultWorkers
	}

	copts, err := compiler.FromConfig(e.cfg)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	cs, _ := e.cfg.Identifiers()
	e.cfg.Charset = cs.String()
	e.compileOpts = append(copts, compiler.WithLogger(e.logger))
	return e, nil
}

// CompileBatch compiles reqs on the worker pool and returns the results in
// request order. Compile errors are reported per result; the returned error
// is only for cancellation or a failure to record.
func (e *Engine) CompileBatch(ctx context.Context, reqs []Request) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := &Batch{
		RunID:   e.ids.Generate(),
		Seq:     e.clock.Next(),
		Results: make([]Result, len(reqs)),
	}
	log := e.logger.With("run_id", b.RunID)

	if e.store != nil {
		run := store.Run{
			ID:              b.RunID,
			Seq:             b.Seq,
			FrontendVersion: ir.FrontendVersion,
			IRVersion:       ir.IRVersion,
			Config:          e.cfg,
		}
		if err := e.store.WriteRun(ctx, run); err != nil {
			return nil, &RecordError{RunID: b.RunID, Seq: b.Seq, Err: err}
		}
	}
	log.Info("batch started", "requests", len(reqs), "workers", e.workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	done := make(chan int)

	var wg sync.WaitGroup
	for range min(e.workers, len(reqs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Each index is handed to exactly one worker.
				b.Results[i] = e.compile(reqs[i])
				select {
				case done <- i:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range reqs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	// Writer: release results in request order.
	ready := make([]bool, len(reqs))
	next := 0
	var werr error
	for i := range done {
		ready[i] = true
		for werr == nil && next < len(reqs) && ready[next] {
			werr = e.release(ctx, log, b, next)
			next++
		}
		if werr != nil {
			cancel()
		}
	}

	if werr != nil {
		return nil, werr
	}
	if next < len(reqs) {
		return nil, fmt.Errorf("batch %s: %w", b.RunID, context.Cause(ctx))
	}
	log.Info("batch finished", "requests", len(reqs), "failed", b.Failed())
	return b, nil
}

func (e *Engine) compile(req Request) Result {
	r := Result{Request: req}
	id, err := ir.ParseID(string(req.Dialect), e.cfg.Charset, req.Text)
	if err != nil {
		r.Err = err
		return r
	}
	r.ParseID = id

	q, err := compiler.Compile(req.Dialect, req.Text, e.compileOpts...)
	if err != nil {
		r.Err = err
		return r
	}
	ast, err := ir.CanonicalJSON(q)
	if err != nil {
		r.Err = err
		return r
	}
	fp, err := ir.Fingerprint(q)
	if err != nil {
		r.Err = err
		return r
	}
	r.Query, r.AST, r.Fingerprint = q, ast, fp
	return r
}

// release stamps result i and records it.
func (e *Engine) release(ctx context.Context, log *slog.Logger, b *Batch, i int) error {
	r := &b.Results[i]
	r.Seq = e.clock.Next()
	log.Debug("parse",
		"seq", r.Seq,
		"dialect", r.Dialect,
		"outcome", r.Outcome(),
	)
	if e.store == nil {
		return nil
	}
	if err := e.store.WriteParse(ctx, toRecord(b.RunID, e.cfg.Charset, *r)); err != nil {
		return &RecordError{RunID: b.RunID, Seq: r.Seq, Err: err}
	}
	return nil
}

func toRecord(runID, charset string, r Result) store.Parse {
	p := store.Parse{
		RunID:       runID,
		Seq:         r.Seq,
		ID:          r.ParseID,
		Dialect:     string(r.Dialect),
		Charset:     charset,
		Text:        r.Text,
		Outcome:     r.Outcome(),
		ErrorCode:   compiler.ErrorCode(r.Err),
		Fingerprint: r.Fingerprint,
		AST:         string(r.AST),
	}
	if r.Err != nil {
		p.Error = r.Err.Error()
	}
	return p
}
