package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamql/internal/config"
)

func TestWriteReadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := testRun("r1", 7)
	run.Config = config.Config{
		Limits:  config.Limits{MaxInputBytes: 512, MaxDepth: 9},
		Charset: "lowercase",
		Workers: 2,
	}
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestWriteRunIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, testRun("r1", 1)))
	require.NoError(t, s.WriteRun(ctx, testRun("r1", 99)))

	got, err := s.ReadRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq, "first write wins")
}

func TestReadRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ReadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteParseRequiresRun(t *testing.T) {
	s := openTestStore(t)
	err := s.WriteParse(context.Background(), testParse("missing", 1, "a"))
	assert.Error(t, err)
}

func TestWriteParseIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, testRun("r1", 1)))

	p := testParse("r1", 2, "a")
	require.NoError(t, s.WriteParse(ctx, p))
	dup := p
	dup.Text = "changed"
	require.NoError(t, s.WriteParse(ctx, dup))

	got, err := s.ReadParses(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []Parse{p}, got)
}
