package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamql/internal/config"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/store"
	"github.com/roach88/streamql/internal/testutil"
)

func TestReplayDeterministic(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ids := &testutil.SequentialRunIDs{}

	cfg := config.Default()
	cfg.Limits.MaxInputBytes = 20
	for _, opts := range [][]Option{
		{WithStore(s), WithRunIDs(ids)},
		{WithStore(s), WithRunIDs(ids), WithConfig(cfg), WithClock(NewClockAt(50))},
	} {
		e, err := New(opts...)
		require.NoError(t, err)
		_, err = e.CompileBatch(ctx, sampleRequests())
		require.NoError(t, err)
	}

	rep, err := Replay(ctx, s, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Runs)
	assert.Equal(t, 10, rep.Parses)
	assert.True(t, rep.Deterministic(), "mismatches: %v", rep.Mismatches)
}

func TestReplayReportsMismatch(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, store.Run{
		ID:              "r1",
		Seq:             1,
		FrontendVersion: ir.FrontendVersion,
		IRVersion:       ir.IRVersion,
		Config:          config.Default(),
	}))

	e, err := New()
	require.NoError(t, err)
	good := e.compile(Request{Dialect: "sql", Text: "select * from t"})
	require.NoError(t, good.Err)

	require.NoError(t, s.WriteParse(ctx, store.Parse{
		RunID:       "r1",
		Seq:         2,
		ID:          good.ParseID,
		Dialect:     "sql",
		Charset:     "unified",
		Text:        "select * from t",
		Outcome:     "ok",
		Fingerprint: "stale",
		AST:         string(good.AST),
	}))

	rep, err := Replay(ctx, s, nil)
	require.NoError(t, err)
	assert.False(t, rep.Deterministic())
	require.Len(t, rep.Mismatches, 1)

	m := rep.Mismatches[0]
	assert.Equal(t, "fingerprint", m.Field)
	assert.Equal(t, "stale", m.Stored)
	assert.Equal(t, good.Fingerprint, m.Replayed)
	assert.Contains(t, m.String(), `run r1 seq 2: fingerprint: stored "stale"`)
}

func TestReplayEmptyStore(t *testing.T) {
	rep, err := Replay(context.Background(), openStore(t), nil)
	require.NoError(t, err)
	assert.Equal(t, ReplayReport{}, rep)
	assert.True(t, rep.Deterministic())
}

func TestReplayRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ids := &testutil.SequentialRunIDs{}
	clock := NewClock()

	for range 2 {
		e, err := New(WithStore(s), WithRunIDs(ids), WithClock(clock))
		require.NoError(t, err)
		_, err = e.CompileBatch(ctx, sampleRequests())
		require.NoError(t, err)
	}

	rep, err := ReplayRun(ctx, s, "run-00000002", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Runs)
	assert.Equal(t, len(sampleRequests()), rep.Parses)
	assert.True(t, rep.Deterministic(), "mismatches: %v", rep.Mismatches)

	_, err = ReplayRun(ctx, s, "run-99999999", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
